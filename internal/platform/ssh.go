package platform

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHConfig describes how to reach a remote host.
type SSHConfig struct {
	Host           string
	Port           int
	User           string
	KeyFile        string
	Password       string
	KnownHostsFile string
	DialTimeout    time.Duration
}

// SSHRunner runs commands on a remote host. Every Run opens its own
// connection and session, the same way `ssh user@host cmd` would.
type SSHRunner struct {
	addr   string
	config *ssh.ClientConfig
	dial   time.Duration
}

// NewSSH builds a runner from cfg. The private key and known_hosts file are
// read once, here.
func NewSSH(cfg SSHConfig) (*SSHRunner, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("ssh host is required")
	}
	port := cfg.Port
	if port == 0 {
		port = 22
	}
	user := cfg.User
	if user == "" {
		user = "root"
	}

	var auth []ssh.AuthMethod
	if cfg.KeyFile != "" {
		key, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("reading ssh key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parsing ssh key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if cfg.Password != "" {
		auth = append(auth, ssh.Password(cfg.Password))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("ssh to %s: no key file or password configured", cfg.Host)
	}

	hostKey := ssh.InsecureIgnoreHostKey()
	if cfg.KnownHostsFile != "" {
		cb, err := knownhosts.New(cfg.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("loading known_hosts: %w", err)
		}
		hostKey = cb
	}

	dial := cfg.DialTimeout
	if dial <= 0 {
		dial = 10 * time.Second
	}

	return &SSHRunner{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		config: &ssh.ClientConfig{
			User:            user,
			Auth:            auth,
			HostKeyCallback: hostKey,
			Timeout:         dial,
		},
		dial: dial,
	}, nil
}

// Run executes the command remotely and returns its standard output.
// Standard error is kept separately and only reported in the error. When
// ctx is done the connection is closed, which unblocks the handshake or
// the running session.
func (r *SSHRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	d := net.Dialer{Timeout: r.dial}
	conn, err := d.DialContext(ctx, "tcp", r.addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", r.addr, err)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	// NewClientConn has no timeout of its own.
	_ = conn.SetDeadline(time.Now().Add(r.dial))
	c, chans, reqs, err := ssh.NewClientConn(conn, r.addr, r.config)
	if err != nil {
		conn.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, fmt.Errorf("ssh handshake with %s: %w", r.addr, err)
	}
	_ = conn.SetDeadline(time.Time{})

	client := ssh.NewClient(c, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, fmt.Errorf("ssh session on %s: %w", r.addr, err)
	}
	defer session.Close()

	// x/crypto/ssh copies the two streams from separate goroutines.
	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	err = session.Run(shellQuote(name, args...))
	if ctxErr := ctx.Err(); ctxErr != nil {
		return stdout.Bytes(), commandError(name, stderr.Bytes(), ctxErr)
	}
	if err != nil {
		return stdout.Bytes(), commandError(name, stderr.Bytes(), err)
	}
	return stdout.Bytes(), nil
}
