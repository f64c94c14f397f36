package gameserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/verbmud/internal/frontend/telnet"
	"github.com/cory-johannsen/verbmud/internal/game/auth"
	"github.com/cory-johannsen/verbmud/internal/game/command"
	"github.com/cory-johannsen/verbmud/internal/game/event"
	"github.com/cory-johannsen/verbmud/internal/game/session"
	"github.com/cory-johannsen/verbmud/internal/game/world"
)

// ErrServerStopped is returned to a login waiting on a tick that will never run.
var ErrServerStopped = errors.New("server stopped")

const (
	msgWelcome          = "Welcome %s!"
	msgBadCredentials   = "Invalid login credentials!"
	msgNoSuchActor      = "No character found by the name of %s!"
	msgMalformedLogin   = "Invalid login request!"
	msgLoginUnavailable = "Login is unavailable right now."
	msgInternalError    = "Something went wrong."
	msgReplaced         = "You have logged in from another connection."
)

// Login results used as the "result" label of the logins counter.
const (
	loginOK          = "ok"
	loginNoSuchActor = "no_such_actor"
	loginBadProof    = "bad_proof"
	loginMalformed   = "malformed"
	loginError       = "error"
)

// LineConn is the connection a session runtime reads from and writes to.
type LineConn interface {
	session.Sender
	ReadLine() (string, error)
	RemoteAddr() net.Addr
}

var _ LineConn = (*telnet.Conn)(nil)

// HandleSession implements telnet.SessionHandler.
func (s *Server) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	return s.Serve(ctx, conn)
}

// Serve runs one connection: login, then the command loop until the client
// disconnects or a write fails.
//
// Postcondition: the connection is closed and the session deregistered.
func (s *Server) Serve(ctx context.Context, conn LineConn) error {
	start := time.Now()
	sess := session.New(conn, conn.RemoteAddr().String())
	logger := s.logger.With(
		zap.String("session_id", sess.ID().String()),
		zap.String("remote_addr", sess.RemoteAddr()),
	)

	s.enqueue(request{kind: requestJoin, sess: sess})
	if s.metrics != nil {
		s.metrics.Connections.Inc()
	}
	defer func() {
		_ = sess.Close()
		s.enqueue(request{kind: requestLeave, sess: sess})
		logger.Debug("session closed", zap.Duration("duration", time.Since(start)))
	}()

	actor, err := s.login(ctx, sess, conn, logger)
	if err != nil {
		return err
	}
	logger = logger.With(zap.Int64("actor_id", int64(actor.ID)))

	for {
		line, err := conn.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) || sess.IsClosed() {
				return nil
			}
			return fmt.Errorf("reading command: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := s.command(ctx, sess, actor.ID, line, logger); err != nil {
			return err
		}
	}
}

// login reads the credential envelope and authenticates the session. A nil
// error means the session is authenticated and present in the directory.
func (s *Server) login(ctx context.Context, sess *session.Session, conn LineConn, logger *zap.Logger) (world.Actor, error) {
	line, err := conn.ReadLine()
	if err != nil {
		return world.Actor{}, fmt.Errorf("reading login: %w", err)
	}

	env, err := auth.DecodeEnvelope(line)
	if err != nil {
		logger.Info("malformed login", zap.Error(err))
		s.countLogin(loginMalformed)
		_ = sess.Send(msgMalformedLogin)
		return world.Actor{}, err
	}

	id, err := s.auth.Validate(ctx, env.CharacterName, env.AccountHash)
	switch {
	case errors.Is(err, auth.ErrNoSuchActor):
		logger.Info("login failed", zap.String("character", env.CharacterName), zap.Error(err))
		s.countLogin(loginNoSuchActor)
		_ = sess.Send(fmt.Sprintf(msgNoSuchActor, env.CharacterName))
		return world.Actor{}, err
	case errors.Is(err, auth.ErrBadProof):
		logger.Info("login failed", zap.String("character", env.CharacterName), zap.Error(err))
		s.countLogin(loginBadProof)
		_ = sess.Send(msgBadCredentials)
		return world.Actor{}, err
	case err != nil:
		logger.Error("validating login", zap.String("character", env.CharacterName), zap.Error(err))
		s.countLogin(loginError)
		_ = sess.Send(msgLoginUnavailable)
		return world.Actor{}, err
	}

	actor, err := s.world.Actor(ctx, id)
	if err != nil {
		logger.Error("loading actor", zap.Int64("actor_id", int64(id)), zap.Error(err))
		s.countLogin(loginError)
		_ = sess.Send(msgLoginUnavailable)
		return world.Actor{}, fmt.Errorf("loading actor %d: %w", id, err)
	}

	sess.Authenticate(actor.ID)
	if err := s.promote(ctx, sess); err != nil {
		return world.Actor{}, fmt.Errorf("promoting session: %w", err)
	}
	s.countLogin(loginOK)
	logger.Info("login",
		zap.String("character", actor.Name),
		zap.Int64("actor_id", int64(actor.ID)),
	)
	if err := sess.Send(fmt.Sprintf(msgWelcome, actor.Name)); err != nil {
		return world.Actor{}, err
	}
	return actor, nil
}

// command runs one line through dispatch and delivers the response. A
// non-nil error ends the session.
func (s *Server) command(ctx context.Context, sess *session.Session, id world.ActorID, line string, logger *zap.Logger) error {
	// The actor may have been moved by another session since the last command.
	actor, err := s.world.Actor(ctx, id)
	if err != nil {
		logger.Error("reloading actor", zap.Error(err))
		_ = sess.Send(msgInternalError)
		return fmt.Errorf("reloading actor %d: %w", id, err)
	}

	resp, err := s.dispatcher.Dispatch(ctx, actor, line)
	if err != nil {
		logger.Error("command failed", zap.String("line", line), zap.Error(err))
		return sess.Send(msgInternalError)
	}
	return s.deliver(sess, resp, logger)
}

// deliver sends the actor and target parts directly and queues the room part.
func (s *Server) deliver(self *session.Session, resp *command.Response, logger *zap.Logger) error {
	selfID, _ := self.ActorID()
	if msg, id, ok := resp.ToActor(); ok {
		if id == selfID {
			if err := self.Send(msg); err != nil {
				return err
			}
		} else if other, found := s.directory.Get(id); found {
			_ = other.Send(msg)
		}
	}

	if msg, id, ok := resp.ToTarget(); ok {
		if target, found := s.directory.Get(id); found {
			if err := target.Send(msg); err != nil {
				logger.Debug("target delivery failed", zap.Int64("target_id", int64(id)), zap.Error(err))
			}
		}
	}

	if e, ok := event.FromResponse(resp); ok {
		s.queue.Push(e)
	}
	return nil
}

func (s *Server) countLogin(result string) {
	if s.metrics != nil {
		s.metrics.Logins.WithLabelValues(result).Inc()
	}
}
