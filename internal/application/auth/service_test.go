package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vitkara-backend/internal/domain"
	"vitkara-backend/internal/pkg/tokens"
	"vitkara-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	to, code string
	err      error
}

func (m *fakeMailer) SendOTP(_ context.Context, to, code string, _ time.Duration) error {
	m.to, m.code = to, code
	return m.err
}

type fakeGoogle struct {
	identity *GoogleIdentity
	err      error
}

func (g *fakeGoogle) Verify(context.Context, string) (*GoogleIdentity, error) {
	return g.identity, g.err
}

func newService(t *testing.T) (*Service, *fakeMailer) {
	t.Helper()
	db := testutil.NewDB(t)
	rdb, _ := testutil.NewRedis(t)
	mailer := &fakeMailer{}
	return &Service{
		DB:           db,
		Otps:         &RedisOtpStore{Rdb: rdb},
		Limiter:      rdb,
		Mailer:       mailer,
		Tokens:       tokens.NewIssuer("test-secret"),
		GenerateCode: func() (string, error) { return "123456", nil },
	}, mailer
}

func TestSendAndVerifyOTP(t *testing.T) {
	svc, mailer := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.SendOTP(ctx, " A@B.com "))
	assert.Equal(t, "a@b.com", mailer.to)
	assert.Equal(t, "123456", mailer.code)

	sess, err := svc.VerifyOTP(ctx, "a@b.com", "123456")
	require.NoError(t, err)
	assert.True(t, sess.IsNew)
	assert.Equal(t, "a", sess.Investor.Name)
	assert.Equal(t, 0.0, sess.Investor.WalletBalance)

	id, claims, err := svc.Tokens.ParseInvestor(sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sess.Investor.ID, id)
	assert.Equal(t, "a@b.com", claims.Email)

	_, err = svc.VerifyOTP(ctx, "a@b.com", "123456")
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestVerifyOTP_ExistingInvestorNotNew(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.DB.Create(&domain.Investor{Name: "Asha", Email: "asha@b.com"}).Error)

	require.NoError(t, svc.SendOTP(ctx, "asha@b.com"))
	sess, err := svc.VerifyOTP(ctx, "asha@b.com", "123456")
	require.NoError(t, err)
	assert.False(t, sess.IsNew)
	assert.Equal(t, "Asha", sess.Investor.Name)
}

func TestSendOTP_Validation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	assert.ErrorIs(t, svc.SendOTP(ctx, ""), ErrMissingEmail)
	assert.ErrorIs(t, svc.SendOTP(ctx, "not-an-email"), ErrInvalidEmail)
}

func TestSendOTP_Cooldown(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.SendOTP(ctx, "a@b.com"))
	assert.ErrorIs(t, svc.SendOTP(ctx, "a@b.com"), ErrOTPCooldown)
	require.NoError(t, svc.SendOTP(ctx, "c@d.com"))
}

func TestSendOTP_DeliveryFailure(t *testing.T) {
	svc, mailer := newService(t)
	mailer.err = errors.New("smtp down")
	assert.ErrorIs(t, svc.SendOTP(context.Background(), "a@b.com"), ErrOTPDelivery)
}

func TestVerifyOTP_TooManyAttempts(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.SendOTP(ctx, "a@b.com"))
	for i := 0; i < MaxVerifyAttempts; i++ {
		_, err := svc.VerifyOTP(ctx, "a@b.com", "000000")
		assert.ErrorIs(t, err, ErrInvalidOTP)
	}
	_, err := svc.VerifyOTP(ctx, "a@b.com", "123456")
	assert.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestVerifyOTP_WithoutLimiterUsesGormStore(t *testing.T) {
	db := testutil.NewDB(t)
	svc := &Service{
		DB:           db,
		Otps:         &GormOtpStore{DB: db},
		Tokens:       tokens.NewIssuer("test-secret"),
		GenerateCode: func() (string, error) { return "654321", nil },
	}
	ctx := context.Background()
	require.NoError(t, svc.SendOTP(ctx, "a@b.com"))
	require.NoError(t, svc.SendOTP(ctx, "a@b.com"))

	_, err := svc.VerifyOTP(ctx, "a@b.com", "654321")
	require.NoError(t, err)
}

func TestGoogleSignIn_ProfileBody(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	sess, err := svc.GoogleSignIn(ctx, GoogleInput{Email: "G@x.com", DisplayName: "Gita", PhotoURL: "https://img/g.png"})
	require.NoError(t, err)
	assert.True(t, sess.IsNew)
	assert.Equal(t, "g@x.com", sess.Investor.Email)
	require.NotNil(t, sess.Investor.Avatar)

	again, err := svc.GoogleSignIn(ctx, GoogleInput{Email: "g@x.com", DisplayName: "Gita"})
	require.NoError(t, err)
	assert.False(t, again.IsNew)
	assert.Equal(t, sess.Investor.ID, again.Investor.ID)

	_, err = svc.GoogleSignIn(ctx, GoogleInput{Email: "g@x.com"})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestGoogleSignIn_RequireIDTokenRejectsProfileBody(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	victim := &domain.Investor{Name: "Asha", Email: "asha@x.com", WalletBalance: 900}
	require.NoError(t, svc.DB.Create(victim).Error)
	svc.RequireIDToken = true

	_, err := svc.GoogleSignIn(ctx, GoogleInput{Email: "asha@x.com", DisplayName: "Asha"})
	assert.ErrorIs(t, err, ErrIDTokenRequired)

	svc.Google = &fakeGoogle{identity: &GoogleIdentity{Subject: "g-9", Email: "asha@x.com", Name: "Asha"}}
	sess, err := svc.GoogleSignIn(ctx, GoogleInput{IDToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, victim.ID, sess.Investor.ID)
}

func TestGoogleSignIn_IDTokenLinksExistingEmail(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	existing := &domain.Investor{Name: "Ravi", Email: "ravi@x.com"}
	require.NoError(t, svc.DB.Create(existing).Error)

	svc.Google = &fakeGoogle{identity: &GoogleIdentity{Subject: "g-1", Email: "ravi@x.com", Name: "Ravi K"}}
	sess, err := svc.GoogleSignIn(ctx, GoogleInput{IDToken: "tok"})
	require.NoError(t, err)
	assert.False(t, sess.IsNew)
	assert.Equal(t, existing.ID, sess.Investor.ID)

	var stored domain.Investor
	require.NoError(t, svc.DB.First(&stored, "id = ?", existing.ID).Error)
	require.NotNil(t, stored.GoogleID)
	assert.Equal(t, "g-1", *stored.GoogleID)
}

func TestGoogleSignIn_InvalidToken(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.GoogleSignIn(ctx, GoogleInput{IDToken: "tok"})
	assert.ErrorIs(t, err, ErrGoogleNotConfigured)

	svc.Google = &fakeGoogle{err: errors.New("network")}
	_, err = svc.GoogleSignIn(ctx, GoogleInput{IDToken: "tok"})
	assert.ErrorIs(t, err, ErrInvalidGoogleToken)
}

func TestRefresh(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	sess, err := svc.GoogleSignIn(ctx, GoogleInput{Email: "r@x.com", DisplayName: "R"})
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, sess.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, sess.Investor.ID, next.Investor.ID)
	assert.NotEmpty(t, next.AccessToken)

	_, err = svc.Refresh(ctx, sess.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestTokenInfoVerifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("id_token") {
		case "good":
			w.Write([]byte(`{"aud":"client-1","sub":"42","email":"U@x.com","email_verified":"true","name":"U"}`))
		case "other-aud":
			w.Write([]byte(`{"aud":"client-2","sub":"42","email":"u@x.com","email_verified":"true"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()
	v := &TokenInfoVerifier{ClientID: "client-1", Endpoint: srv.URL}
	ctx := context.Background()

	id, err := v.Verify(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "42", id.Subject)
	assert.Equal(t, "u@x.com", id.Email)

	_, err = v.Verify(ctx, "other-aud")
	assert.ErrorIs(t, err, ErrInvalidGoogleToken)
	_, err = v.Verify(ctx, "bad")
	assert.ErrorIs(t, err, ErrInvalidGoogleToken)
}
