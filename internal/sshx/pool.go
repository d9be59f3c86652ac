// Package sshx is the SSH-backed execution backend behind a session pane:
// a connection pool with keepalive probing, one-shot command execution with
// working-directory context, and remote tab completion.
package sshx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/antonkrylov/shellpane/internal/session"
)

var (
	// ErrAlreadyConnected rejects a duplicate connect for a server id.
	ErrAlreadyConnected = errors.New("server already connected")
	// ErrNotConnected reports an operation against a server without a live
	// connection.
	ErrNotConnected = errors.New("server not connected")
	// ErrNeverConnected reports a reconnect for a server the pool has no
	// stored parameters for.
	ErrNeverConnected = errors.New("server was never connected")
)

const (
	defaultDialTimeout       = 15 * time.Second
	defaultHeartbeatInterval = 30 * time.Second
	// A connection older than this without a successful probe is torn down.
	defaultStaleAfter = 5 * time.Minute
)

// ConnectParams carries everything needed to open one server connection.
// Exactly one of Password or KeyPath must be set.
type ConnectParams struct {
	ServerID string
	Name     string
	Host     string
	Port     int
	Username string
	Password string
	KeyPath  string
}

// remoteClient runs one-shot commands over an established transport. The
// indirection keeps the pool testable without a network.
type remoteClient interface {
	run(command string) (output string, exitCode int, err error)
	close() error
}

// Pool tracks live server connections keyed by server id. It implements the
// execution and completion contracts the session controller is built
// against.
type Pool struct {
	mu    sync.Mutex
	conns map[string]*conn
	// last remembers the most recent params per server so Reconnect works
	// after a drop.
	last map[string]ConnectParams

	dial              func(params ConnectParams, timeout time.Duration) (remoteClient, error)
	dialTimeout       time.Duration
	heartbeatInterval time.Duration
	staleAfter        time.Duration
}

type conn struct {
	params ConnectParams
	client remoteClient
	cancel context.CancelFunc

	mu       sync.Mutex
	lastBeat time.Time
}

func (c *conn) touch() {
	c.mu.Lock()
	c.lastBeat = time.Now()
	c.mu.Unlock()
}

func (c *conn) sinceBeat() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.lastBeat)
}

// NewPool returns an empty pool with production dialing and keepalive
// defaults.
func NewPool() *Pool {
	return &Pool{
		conns:             make(map[string]*conn),
		last:              make(map[string]ConnectParams),
		dial:              dialSSH,
		dialTimeout:       defaultDialTimeout,
		heartbeatInterval: defaultHeartbeatInterval,
		staleAfter:        defaultStaleAfter,
	}
}

// Connect opens a connection for params.ServerID and starts its keepalive
// loop. A second connect for the same id fails with ErrAlreadyConnected.
func (p *Pool) Connect(ctx context.Context, params ConnectParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	if _, ok := p.conns[params.ServerID]; ok {
		p.mu.Unlock()
		return ErrAlreadyConnected
	}
	p.mu.Unlock()

	client, err := p.dial(params, p.dialTimeout)
	if err != nil {
		return friendlyDialError(err, params.Host, params.Port)
	}

	hbCtx, cancel := context.WithCancel(context.Background())
	cn := &conn{params: params, client: client, cancel: cancel, lastBeat: time.Now()}

	p.mu.Lock()
	if _, ok := p.conns[params.ServerID]; ok {
		p.mu.Unlock()
		cancel()
		_ = client.close()
		return ErrAlreadyConnected
	}
	p.conns[params.ServerID] = cn
	p.last[params.ServerID] = params
	p.mu.Unlock()

	if p.heartbeatInterval > 0 {
		go p.heartbeat(hbCtx, params.ServerID, cn)
	}
	return nil
}

// Disconnect tears down the connection for serverID. Disconnecting an
// already-disconnected server succeeds.
func (p *Pool) Disconnect(serverID string) error {
	p.drop(serverID)
	return nil
}

// Reconnect re-establishes a connection using the stored parameters from
// the last Connect, tearing down any live connection first.
func (p *Pool) Reconnect(ctx context.Context, serverID string) error {
	p.mu.Lock()
	params, ok := p.last[serverID]
	p.mu.Unlock()
	if !ok {
		return ErrNeverConnected
	}
	p.drop(serverID)
	return p.Connect(ctx, params)
}

// Connected reports whether serverID has a live connection.
func (p *Pool) Connected(serverID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.conns[serverID]
	return ok
}

// Close tears down every connection.
func (p *Pool) Close() {
	p.mu.Lock()
	ids := make([]string, 0, len(p.conns))
	for id := range p.conns {
		ids = append(ids, id)
	}
	p.mu.Unlock()
	for _, id := range ids {
		p.drop(id)
	}
}

// SessionSource adapts the pool into the connection-context view the
// session controller reads.
func (p *Pool) SessionSource(serverID string) session.ContextSource {
	return poolSource{pool: p, id: serverID}
}

type poolSource struct {
	pool *Pool
	id   string
}

func (s poolSource) SessionContext() session.Context {
	s.pool.mu.Lock()
	defer s.pool.mu.Unlock()
	params, known := s.pool.last[s.id]
	if cn, ok := s.pool.conns[s.id]; ok {
		params, known = cn.params, true
	}
	if !known {
		return session.Context{ServerID: s.id}
	}
	_, live := s.pool.conns[s.id]
	return session.Context{
		ServerID:  s.id,
		Name:      params.Name,
		Host:      params.Host,
		Port:      params.Port,
		Username:  params.Username,
		Connected: live,
	}
}

func (p *Pool) lookup(serverID string) (*conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cn, ok := p.conns[serverID]
	if !ok {
		return nil, ErrNotConnected
	}
	return cn, nil
}

func (p *Pool) drop(serverID string) {
	p.mu.Lock()
	cn, ok := p.conns[serverID]
	delete(p.conns, serverID)
	p.mu.Unlock()
	if !ok {
		return
	}
	cn.cancel()
	_ = cn.client.close()
}

// heartbeat probes the connection with a no-op command until it goes stale
// or the probe fails, then tears it down. Executing a real command also
// counts as a beat.
func (p *Pool) heartbeat(ctx context.Context, serverID string, cn *conn) {
	ticker := time.NewTicker(p.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if cn.sinceBeat() > p.staleAfter {
			log.Printf("sshx: connection %s stale, dropping", serverID)
			p.drop(serverID)
			return
		}
		if _, _, err := cn.client.run("echo -n"); err != nil {
			log.Printf("sshx: keepalive for %s failed: %v", serverID, err)
			p.drop(serverID)
			return
		}
		cn.touch()
	}
}

// dialSSH opens a real SSH connection. Host keys are accepted without
// verification, matching the trust model of the pane: servers come from the
// user's own config.
func dialSSH(params ConnectParams, timeout time.Duration) (remoteClient, error) {
	var auth []ssh.AuthMethod
	switch {
	case strings.TrimSpace(params.KeyPath) != "":
		keyPath, err := expandPath(params.KeyPath)
		if err != nil {
			return nil, err
		}
		pem, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("parse key file: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	case params.Password != "":
		auth = append(auth, ssh.Password(params.Password))
	default:
		return nil, errors.New("password or key path is required")
	}

	cfg := &ssh.ClientConfig{
		User:            params.Username,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}
	addr := net.JoinHostPort(params.Host, strconv.Itoa(params.Port))
	cli, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, err
	}
	return &sshRemote{cli: cli}, nil
}

type sshRemote struct {
	cli *ssh.Client
}

// run executes one command in a fresh session, capturing stdout. A non-zero
// remote exit status is a normal result, not an error.
func (c *sshRemote) run(command string) (string, int, error) {
	sess, err := c.cli.NewSession()
	if err != nil {
		return "", 0, fmt.Errorf("open channel: %w", err)
	}
	defer sess.Close()

	var out bytes.Buffer
	sess.Stdout = &out
	err = sess.Run(command)
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return out.String(), exitErr.ExitStatus(), nil
	}
	if err != nil {
		return out.String(), 0, err
	}
	return out.String(), 0, nil
}

func (c *sshRemote) close() error { return c.cli.Close() }

// friendlyDialError rewrites common dial failures into actionable messages.
func friendlyDialError(err error, host string, port int) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return fmt.Errorf("cannot reach %s:%d: connection refused; check host and port", host, port)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		return fmt.Errorf("connection to %s:%d timed out", host, port)
	case strings.Contains(msg, "no route to host"):
		return fmt.Errorf("%s:%d is unreachable; check the network", host, port)
	case strings.Contains(msg, "unable to authenticate"):
		return fmt.Errorf("authentication failed for %s:%d; check username and credentials", host, port)
	default:
		return fmt.Errorf("connect to %s:%d: %w", host, port, err)
	}
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return trimmed, nil
}
