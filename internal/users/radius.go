package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"layeh.com/radius"
	"layeh.com/radius/rfc2865"
	"layeh.com/radius/rfc2866"

	"rpc-auth-go/internal/auth"
	"rpc-auth-go/internal/auth/basic"
	"rpc-auth-go/internal/logging"
)

// RadiusBackend checks credentials with a RADIUS PAP Access-Request.
// Groups come from the Filter-Id attributes of the Access-Accept; the
// directory, when set, adds the local permissions and groups of the user.
type RadiusBackend struct {
	Server        string
	AcctServer    string
	Secret        []byte
	NASIdentifier string
	Timeout       time.Duration
	Directory     *Directory

	mu       sync.Mutex
	accepted map[string]auth.User

	logger *logging.Logger
}

func NewRadiusBackend(server string, secret []byte, nasID string, timeout time.Duration, dir *Directory) *RadiusBackend {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if dir == nil {
		dir = NewDirectory()
	}
	return &RadiusBackend{
		Server:        server,
		Secret:        secret,
		NASIdentifier: nasID,
		Timeout:       timeout,
		Directory:     dir,
		accepted:      make(map[string]auth.User),
		logger:        logging.Get("rpcauth.users.radius"),
	}
}

// Authenticate implements basic.Authenticator.
func (b *RadiusBackend) Authenticate(ctx context.Context, username, password string) (auth.User, error) {
	if username == "" || password == "" {
		return nil, basic.ErrInvalidCredentials
	}

	packet := radius.New(radius.CodeAccessRequest, b.Secret)
	if err := rfc2865.UserName_SetString(packet, username); err != nil {
		return nil, err
	}
	if err := rfc2865.UserPassword_SetString(packet, password); err != nil {
		return nil, err
	}
	if b.NASIdentifier != "" {
		_ = rfc2865.NASIdentifier_SetString(packet, b.NASIdentifier)
	}

	rctx, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()

	start := time.Now()
	response, err := radius.Exchange(rctx, packet, b.Server)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			b.logger.Printf("[TIMEOUT] user=%s server=%s elapsed=%s", username, b.Server, elapsed)
		} else {
			b.logger.Printf("[ERROR] user=%s server=%s elapsed=%s err=%v", username, b.Server, elapsed, err)
		}
		return nil, err
	}

	switch response.Code {
	case radius.CodeAccessAccept:
		groups := filterIDs(response)
		b.logger.Printf("[ACCEPT] user=%s server=%s elapsed=%s groups=%v", username, b.Server, elapsed, groups)
		u := b.Directory.Resolve(username, groups)
		b.mu.Lock()
		b.accepted[username] = u
		b.mu.Unlock()
		return u, nil
	case radius.CodeAccessReject:
		b.logger.Printf("[REJECT] user=%s server=%s elapsed=%s", username, b.Server, elapsed)
		b.mu.Lock()
		delete(b.accepted, username)
		b.mu.Unlock()
		return nil, basic.ErrInvalidCredentials
	default:
		b.logger.Printf("[UNKNOWN] user=%s server=%s elapsed=%s code=%v", username, b.Server, elapsed, response.Code)
		return nil, fmt.Errorf("unexpected RADIUS response code: %v", response.Code)
	}
}

// Lookup returns the user as of its last Access-Accept, falling back to
// the directory for users not seen since startup.
func (b *RadiusBackend) Lookup(username string) (auth.User, bool) {
	b.mu.Lock()
	u, ok := b.accepted[username]
	b.mu.Unlock()
	if ok {
		return u, true
	}
	return b.Directory.Lookup(username)
}

// AccountingStart reports a new session to the accounting server.
func (b *RadiusBackend) AccountingStart(ctx context.Context, username, sessionID string) error {
	return b.account(ctx, username, sessionID, rfc2866.AcctStatusType_Value_Start)
}

// AccountingStop reports the end of a session.
func (b *RadiusBackend) AccountingStop(ctx context.Context, username, sessionID string) error {
	return b.account(ctx, username, sessionID, rfc2866.AcctStatusType_Value_Stop)
}

func (b *RadiusBackend) account(ctx context.Context, username, sessionID string, status rfc2866.AcctStatusType) error {
	if b.AcctServer == "" {
		return nil
	}
	packet := radius.New(radius.CodeAccountingRequest, b.Secret)
	if err := rfc2865.UserName_SetString(packet, username); err != nil {
		return err
	}
	if b.NASIdentifier != "" {
		_ = rfc2865.NASIdentifier_SetString(packet, b.NASIdentifier)
	}
	if err := rfc2866.AcctStatusType_Set(packet, status); err != nil {
		return err
	}
	if err := rfc2866.AcctSessionID_SetString(packet, sessionID); err != nil {
		return err
	}

	rctx, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()

	resp, err := radius.Exchange(rctx, packet, b.AcctServer)
	if err != nil {
		b.logger.Printf("[ACCT][ERROR] user=%s session=%s status=%v err=%v", username, sessionID, status, err)
		return err
	}
	if resp.Code != radius.CodeAccountingResponse {
		return fmt.Errorf("unexpected RADIUS accounting response code: %v", resp.Code)
	}
	b.logger.Printf("[ACCT] user=%s session=%s status=%v", username, sessionID, status)
	return nil
}

// filterIDs returns the group names carried by Filter-Id attributes. A
// single attribute may hold a comma separated list.
func filterIDs(p *radius.Packet) []string {
	values, err := rfc2865.FilterID_GetStrings(p)
	if err != nil {
		return nil
	}
	var out []string
	for _, v := range values {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}
