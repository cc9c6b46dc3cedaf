package cache

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

// ValkeyConfig holds connection parameters for a Valkey or Redis compatible
// server.
type ValkeyConfig struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxRetries   int
	TLS          bool
}

func (cfg *ValkeyConfig) applyDefaults() {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 2 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 500 * time.Millisecond
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 500 * time.Millisecond
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
}

// ValkeyProvider implements Provider against a Valkey server speaking RESP2
// over a fresh connection per operation. The engine's cache traffic is a
// handful of small keys per request, which keeps a connection pool from
// paying for itself.
type ValkeyProvider struct {
	cfg ValkeyConfig
}

// NewValkeyProvider validates connectivity with a PING before returning, so
// bad credentials or an unreachable server fail at startup rather than on
// first use.
func NewValkeyProvider(cfg ValkeyConfig) (*ValkeyProvider, error) {
	if cfg.Addr == "" {
		return nil, errors.New("valkey addr is required")
	}
	cfg.applyDefaults()
	p := &ValkeyProvider{cfg: cfg}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := p.ping(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Get fetches bytes by key, returning ErrCacheMiss when the key is absent.
func (p *ValkeyProvider) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := p.do(ctx, func(c *wireConn) error {
		reply, err := c.execute([][]byte{[]byte("GET"), []byte(key)})
		if err != nil {
			return err
		}
		switch {
		case reply.isNil():
			return ErrCacheMiss
		case reply.kind == '$':
			payload = reply.data
			return nil
		default:
			return fmt.Errorf("unexpected GET reply kind %q", reply.kind)
		}
	})
	return payload, err
}

// Set stores bytes with the provided TTL.
func (p *ValkeyProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return p.do(ctx, func(c *wireConn) error {
		args := withExpiry([][]byte{[]byte("SET"), []byte(key), value}, ttl)
		reply, err := c.execute(args)
		if err != nil {
			return err
		}
		if !reply.isOK() {
			return fmt.Errorf("unexpected SET reply: %s", reply.data)
		}
		return nil
	})
}

// SetNX stores the value only if the key does not exist, reporting whether
// the write happened.
func (p *ValkeyProvider) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	var stored bool
	err := p.do(ctx, func(c *wireConn) error {
		args := withExpiry([][]byte{[]byte("SET"), []byte(key), value}, ttl)
		args = append(args, []byte("NX"))
		reply, err := c.execute(args)
		if err != nil {
			return err
		}
		switch {
		case reply.isNil():
			stored = false
			return nil
		case reply.kind == '+':
			stored = true
			return nil
		default:
			return fmt.Errorf("unexpected SET NX reply kind %q", reply.kind)
		}
	})
	return stored, err
}

// Del removes a key from the cache.
func (p *ValkeyProvider) Del(ctx context.Context, key string) error {
	return p.do(ctx, func(c *wireConn) error {
		_, err := c.execute([][]byte{[]byte("DEL"), []byte(key)})
		return err
	})
}

// Close closes the underlying client (no-op for the per-operation dialer).
func (p *ValkeyProvider) Close() error { return nil }

func (p *ValkeyProvider) ping(ctx context.Context) error {
	return p.do(ctx, func(c *wireConn) error {
		reply, err := c.execute([][]byte{[]byte("PING")})
		if err != nil {
			return err
		}
		if reply.kind != '+' || !strings.EqualFold(string(reply.data), "PONG") {
			return fmt.Errorf("unexpected PING reply: %s", reply.data)
		}
		return nil
	})
}

// do dials, handshakes, runs fn, and retries transient failures with
// exponential backoff up to MaxRetries attempts.
func (p *ValkeyProvider) do(ctx context.Context, fn func(*wireConn) error) error {
	var lastErr error
	for attempt := 0; attempt < p.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if attempt > 0 {
			time.Sleep(retryBackoff(attempt - 1))
		}

		c, err := p.connect(ctx)
		if err != nil {
			lastErr = err
			if retryable(err) {
				continue
			}
			return err
		}

		err = fn(c)
		c.close()
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) {
			return err
		}
	}
	return lastErr
}

func (p *ValkeyProvider) connect(ctx context.Context) (*wireConn, error) {
	timeout := p.cfg.DialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 && remaining < timeout {
			timeout = remaining
		}
	}
	dialer := net.Dialer{Timeout: timeout}

	var (
		netConn net.Conn
		err     error
	)
	if p.cfg.TLS {
		host := p.cfg.Addr
		if h, _, splitErr := net.SplitHostPort(p.cfg.Addr); splitErr == nil {
			host = h
		}
		tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host}
		netConn, err = tls.DialWithDialer(&dialer, "tcp", p.cfg.Addr, tlsCfg)
	} else {
		netConn, err = dialer.DialContext(ctx, "tcp", p.cfg.Addr)
	}
	if err != nil {
		return nil, err
	}

	c := &wireConn{
		conn:         netConn,
		r:            bufio.NewReader(netConn),
		w:            bufio.NewWriter(netConn),
		readTimeout:  p.cfg.ReadTimeout,
		writeTimeout: p.cfg.WriteTimeout,
	}
	if err := c.handshake(p.cfg); err != nil {
		c.close()
		return nil, err
	}
	return c, nil
}

// wireReply is the subset of RESP2 replies the provider understands. A zero
// kind marks a nil bulk reply.
type wireReply struct {
	kind byte
	data []byte
}

func (r wireReply) isNil() bool { return r.kind == 0 }

func (r wireReply) isOK() bool {
	return r.kind == '+' && strings.EqualFold(string(r.data), "OK")
}

// wireConn wraps a network connection with RESP2 framing.
type wireConn struct {
	conn         net.Conn
	r            *bufio.Reader
	w            *bufio.Writer
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func (c *wireConn) close() { _ = c.conn.Close() }

func (c *wireConn) handshake(cfg ValkeyConfig) error {
	if cfg.Password != "" {
		cmd := [][]byte{[]byte("AUTH")}
		if cfg.Username != "" {
			cmd = append(cmd, []byte(cfg.Username))
		}
		cmd = append(cmd, []byte(cfg.Password))
		reply, err := c.execute(cmd)
		if err != nil {
			return err
		}
		if !reply.isOK() {
			return fmt.Errorf("auth rejected: %s", reply.data)
		}
	}
	if cfg.DB > 0 {
		reply, err := c.execute([][]byte{[]byte("SELECT"), []byte(strconv.Itoa(cfg.DB))})
		if err != nil {
			return err
		}
		if !reply.isOK() {
			return fmt.Errorf("select db %d: %s", cfg.DB, reply.data)
		}
	}
	return nil
}

func (c *wireConn) execute(cmd [][]byte) (wireReply, error) {
	if err := c.send(cmd); err != nil {
		return wireReply{}, err
	}
	return c.readReply()
}

// send writes one command as a RESP array of bulk strings. Write errors on
// the buffered writer are sticky and surface from Flush.
func (c *wireConn) send(cmd [][]byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	fmt.Fprintf(c.w, "*%d\r\n", len(cmd))
	for _, arg := range cmd {
		fmt.Fprintf(c.w, "$%d\r\n", len(arg))
		c.w.Write(arg)
		c.w.WriteString("\r\n")
	}
	return c.w.Flush()
}

func (c *wireConn) readReply() (wireReply, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return wireReply{}, err
	}
	line, err := c.readLine()
	if err != nil {
		return wireReply{}, err
	}
	if len(line) == 0 {
		return wireReply{}, errors.New("empty reply line")
	}

	kind, rest := line[0], line[1:]
	switch kind {
	case '+', ':':
		return wireReply{kind: kind, data: rest}, nil
	case '-':
		return wireReply{}, errors.New(string(rest))
	case '$':
		size, err := strconv.Atoi(string(rest))
		if err != nil {
			return wireReply{}, fmt.Errorf("bad bulk length %q", rest)
		}
		if size < 0 {
			return wireReply{}, nil
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(c.r, buf); err != nil {
			return wireReply{}, err
		}
		if buf[size] != '\r' || buf[size+1] != '\n' {
			return wireReply{}, errors.New("bulk reply missing terminator")
		}
		return wireReply{kind: '$', data: buf[:size]}, nil
	default:
		return wireReply{}, fmt.Errorf("unexpected reply prefix %q", kind)
	}
}

func (c *wireConn) readLine() ([]byte, error) {
	line, err := c.r.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	return bytes.TrimRight(line, "\r\n"), nil
}

func withExpiry(args [][]byte, ttl time.Duration) [][]byte {
	if ttl > 0 {
		ms := strconv.FormatInt(ttl.Milliseconds(), 10)
		args = append(args, []byte("PX"), []byte(ms))
	}
	return args
}

func retryBackoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * 25 * time.Millisecond
}

// retryable reports whether a fresh connection is worth trying: timeouts
// and torn connections qualify, protocol or server errors do not.
func retryable(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
