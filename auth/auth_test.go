package auth_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rabilrbl/taskboard"
	"github.com/rabilrbl/taskboard/auth"
	"github.com/rabilrbl/taskboard/id"
	"github.com/rabilrbl/taskboard/mail"
	"github.com/rabilrbl/taskboard/store/memory"
	"github.com/rabilrbl/taskboard/user"
)

type mailerSpy struct {
	mu   sync.Mutex
	sent []*mail.Message
}

func (m *mailerSpy) Send(ctx context.Context, msg *mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func newService(t *testing.T, opts ...auth.Option) (*auth.Service, *memory.Store, *mailerSpy, *user.User) {
	t.Helper()
	st := memory.New()
	spy := &mailerSpy{}
	u := &user.User{Entity: taskboard.NewEntity(), ID: id.NewUserID(), Username: "ada", Email: "ada@example.com"}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return auth.NewService(st, spy, []byte("test-secret"), opts...), st, spy, u
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()
	svc, _, _, u := newService(t)

	signed, err := svc.IssueToken(u)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	got, err := svc.VerifyToken(signed)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if got.String() != u.ID.String() {
		t.Fatalf("subject: got %s, want %s", got, u.ID)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	t.Parallel()
	svc, _, _, u := newService(t)

	signed, err := svc.IssueToken(u)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	tampered := signed[:len(signed)-2] + "xx"
	if _, err := svc.VerifyToken(tampered); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
	if _, err := svc.VerifyToken("not.a.jwt"); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}

func TestMagicLinkFlow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, spy, u := newService(t)

	link, err := svc.StartMagicLink(ctx, u.Email, "https://tasks.example.com")
	if err != nil {
		t.Fatalf("StartMagicLink: %v", err)
	}
	if len(spy.sent) != 1 || !strings.Contains(spy.sent[0].Body, link) {
		t.Fatalf("link email: %+v", spy.sent)
	}

	token := link[strings.Index(link, "token=")+len("token="):]
	got, signed, err := svc.RedeemMagicLink(ctx, token)
	if err != nil {
		t.Fatalf("RedeemMagicLink: %v", err)
	}
	if got.ID.String() != u.ID.String() || signed == "" {
		t.Fatalf("redeem: got %+v", got)
	}

	// One-time use.
	if _, _, err := svc.RedeemMagicLink(ctx, token); !errors.Is(err, auth.ErrInvalidLink) {
		t.Fatalf("second redeem: got %v, want ErrInvalidLink", err)
	}
}

func TestMagicLinkUnknownEmail(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newService(t)

	_, err := svc.StartMagicLink(context.Background(), "nobody@example.com", "https://tasks.example.com")
	if !errors.Is(err, taskboard.ErrUserNotFound) {
		t.Fatalf("got %v, want ErrUserNotFound", err)
	}
}

func TestMagicLinkExpires(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _, u := newService(t, auth.WithLinkTTL(-time.Second))

	link, err := svc.StartMagicLink(ctx, u.Email, "https://tasks.example.com")
	if err != nil {
		t.Fatalf("StartMagicLink: %v", err)
	}
	token := link[strings.Index(link, "token=")+len("token="):]
	if _, _, err := svc.RedeemMagicLink(ctx, token); !errors.Is(err, auth.ErrInvalidLink) {
		t.Fatalf("expired redeem: got %v, want ErrInvalidLink", err)
	}
}
