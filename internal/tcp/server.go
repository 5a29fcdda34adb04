package tcp

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"

	"github.com/rs/zerolog/log"

	"green-felt/internal/store"
)

// maxFrameBytes bounds a single inbound line; commands are tiny, so
// anything larger is a broken or hostile client.
const maxFrameBytes = 4096

const authAck = `{"a_u":1}`

// Server accepts raw TCP connections and runs the frame protocol over
// them. The first frame must authenticate; everything after is dispatched
// through the broker.
type Server struct {
	addr   string
	store  store.Store
	broker *Broker

	mu sync.Mutex
	ln net.Listener
}

func NewServer(addr string, s store.Store, b *Broker) *Server {
	return &Server{addr: addr, store: s, broker: b}
}

// ListenAndServe blocks until the listener is closed.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	log.Info().Str("addr", s.addr).Msg("tcp server listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return err
		}
		go s.handleConn(ctx, conn)
	}
}

// Addr reports the bound listen address, useful when the configured port
// was 0.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, maxFrameBytes), maxFrameBytes)

	sess, ok := s.authenticate(ctx, conn, scanner)
	if !ok {
		_ = conn.Close()
		return
	}

	go sess.writeLoop()
	s.broker.register(sess)
	sess.write(encodeFrame([]byte(authAck)))
	log.Info().Str("user_id", sess.userID).Str("remote", conn.RemoteAddr().String()).Msg("player connected")

	for scanner.Scan() {
		payload, err := decodeFrame(scanner.Text())
		if err != nil {
			sess.write(encodeFrame(errorPayload("malformed_frame")))
			continue
		}
		cmd, arg := parseCommand(payload)
		s.broker.handle(ctx, sess, cmd, arg)
	}

	log.Info().Str("user_id", sess.userID).Msg("player disconnected")
	s.broker.disconnect(ctx, sess)
}

// authenticate consumes the first frame, which must be AU|token for a
// known user. Anything else drops the connection without a reply beyond
// the error frame.
func (s *Server) authenticate(ctx context.Context, conn net.Conn, scanner *bufio.Scanner) (*session, bool) {
	if !scanner.Scan() {
		return nil, false
	}
	payload, err := decodeFrame(scanner.Text())
	if err != nil {
		return nil, false
	}
	cmd, token := parseCommand(payload)
	if cmd != cmdAuth || token == "" {
		_, _ = conn.Write(encodeFrame(errorPayload("auth_required")))
		return nil, false
	}
	user, err := s.store.GetUserByToken(ctx, token)
	if err != nil {
		_, _ = conn.Write(encodeFrame(errorPayload("invalid_token")))
		log.Warn().Str("remote", conn.RemoteAddr().String()).Msg("auth rejected")
		return nil, false
	}
	return &session{
		conn:     conn,
		send:     make(chan []byte, 16),
		userID:   user.ID,
		username: user.Username,
	}, true
}

func (s *session) writeLoop() {
	for frame := range s.send {
		if _, err := s.conn.Write(frame); err != nil {
			_ = s.conn.Close()
			return
		}
	}
}
