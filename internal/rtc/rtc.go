// Package rtc carries action messages over a WebRTC data channel.
//
// Signaling is a single exchange: the remote side sends a base64 encoded
// JSON session description offer and gets the answer back in the same form,
// with ICE candidates already gathered.
package rtc

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/pion/webrtc/v4"

	"agentdesk/internal/computer"
	"agentdesk/internal/logger"
	"agentdesk/internal/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Label is the data channel that carries actions. Other channels are ignored.
const Label = "actions"

// ErrBadOffer is returned for offers that cannot be decoded.
var ErrBadOffer = errors.New("invalid session description offer")

type Submitter interface {
	Submit(ctx context.Context, req computer.Request) (*computer.Result, error)
}

type Options struct {
	// ICEServers are STUN/TURN urls. Empty means host candidates only.
	ICEServers []string
	// Backlog is how many messages per channel may wait for the queue.
	// Zero means 32.
	Backlog int
}

// Peers answers offers and owns the resulting peer connections.
type Peers struct {
	q    Submitter
	opts Options
	log  *logger.Logger

	mu    sync.Mutex
	conns map[*webrtc.PeerConnection]struct{}
}

func New(q Submitter, opts Options, log *logger.Logger) *Peers {
	if log == nil {
		log = logger.New()
	}
	if opts.Backlog <= 0 {
		opts.Backlog = 32
	}
	return &Peers{q: q, opts: opts, log: log, conns: make(map[*webrtc.PeerConnection]struct{})}
}

// Answer creates a peer connection for offer and returns the encoded answer.
func (p *Peers) Answer(ctx context.Context, offer string) (string, error) {
	var desc webrtc.SessionDescription
	if err := Decode(offer, &desc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadOffer, err)
	}

	cfg := webrtc.Configuration{}
	if len(p.opts.ICEServers) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: p.opts.ICEServers}}
	}
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return "", fmt.Errorf("new pc: %w", err)
	}
	p.track(pc)

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != Label {
			p.log.Debug("ignoring data channel %s", dc.Label())
			return
		}
		p.serve(dc)
	})
	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		p.log.Debug("peer connection state: %s", s.String())
		if s == webrtc.PeerConnectionStateFailed || s == webrtc.PeerConnectionStateClosed {
			p.untrack(pc)
			pc.Close()
		}
	})

	fail := func(err error) (string, error) {
		p.untrack(pc)
		pc.Close()
		return "", err
	}

	if err := pc.SetRemoteDescription(desc); err != nil {
		return fail(fmt.Errorf("%w: set remote: %v", ErrBadOffer, err))
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return fail(fmt.Errorf("create answer: %w", err))
	}
	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		return fail(fmt.Errorf("set local: %w", err))
	}
	select {
	case <-gatherComplete:
	case <-ctx.Done():
		return fail(ctx.Err())
	}

	out, err := Encode(pc.LocalDescription())
	if err != nil {
		return fail(err)
	}
	return out, nil
}

// serve answers every message on dc in arrival order. A message that arrives
// while the backlog is full is answered with a busy error instead of being
// queued. Actions still waiting when the channel closes are cancelled.
func (p *Peers) serve(dc *webrtc.DataChannel) {
	ctx, cancel := context.WithCancel(context.Background())
	var (
		mu     sync.Mutex
		closed bool
		msgs   = make(chan []byte, p.opts.Backlog)
	)
	dc.OnOpen(func() {
		p.log.Info("data channel %s open", dc.Label())
	})
	dc.OnClose(func() {
		cancel()
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			close(msgs)
		}
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case msgs <- msg.Data:
		default:
			var in types.ActionMessage
			_ = json.Unmarshal(msg.Data, &in)
			p.reply(dc, types.ResultMessage{ID: in.ID, Error: "too many pending actions", ErrorKind: "busy"})
		}
	})

	go func() {
		for data := range msgs {
			var in types.ActionMessage
			if err := json.Unmarshal(data, &in); err != nil {
				p.reply(dc, types.ResultMessage{Error: fmt.Sprintf("json error: %v", err), ErrorKind: "bad_message"})
				continue
			}
			res, err := p.q.Submit(ctx, in.Request())
			p.reply(dc, types.NewResultMessage(in.ID, res, err))
		}
	}()
}

func (p *Peers) reply(dc *webrtc.DataChannel, out types.ResultMessage) {
	payload, err := json.Marshal(out)
	if err != nil {
		p.log.Error("marshal result: %v", err)
		return
	}
	if err := dc.SendText(string(payload)); err != nil {
		p.log.Warn("data channel send: %v", err)
	}
}

func (p *Peers) track(pc *webrtc.PeerConnection) {
	p.mu.Lock()
	p.conns[pc] = struct{}{}
	p.mu.Unlock()
}

func (p *Peers) untrack(pc *webrtc.PeerConnection) {
	p.mu.Lock()
	delete(p.conns, pc)
	p.mu.Unlock()
}

// Len reports how many peer connections are live.
func (p *Peers) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// Close closes every peer connection.
func (p *Peers) Close() error {
	p.mu.Lock()
	conns := p.conns
	p.conns = make(map[*webrtc.PeerConnection]struct{})
	p.mu.Unlock()

	var errs []error
	for pc := range conns {
		if err := pc.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Encode renders a session description as base64 JSON.
func Encode(desc *webrtc.SessionDescription) (string, error) {
	b, err := json.Marshal(desc)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Decode parses base64 JSON into desc.
func Decode(in string, desc *webrtc.SessionDescription) error {
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(in))
	if err != nil {
		return err
	}
	return json.Unmarshal(b, desc)
}
