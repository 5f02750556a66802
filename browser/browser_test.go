package browser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	apperrors "github.com/raushankrgupta/shopbot/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLoginURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.amazon.in/ap/signin?openid.return_to=x", true},
		{"https://www.flipkart.com/account/login?ret=/", true},
		{"https://www.myntra.com/LOGIN?referer=/", true},
		{"https://www.ajio.com/s/men", false},
		{"https://www.amazon.in/s?k=shoes", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsLoginURL(tt.url), tt.url)
	}
}

func TestIsCheckoutURL(t *testing.T) {
	assert.True(t, IsCheckoutURL("https://www.amazon.in/gp/buy/spc/handlers/display.html"))
	assert.True(t, IsCheckoutURL("https://www.flipkart.com/viewcart"))
	assert.True(t, IsCheckoutURL("https://www.myntra.com/checkout/cart"))
	assert.False(t, IsCheckoutURL("https://www.myntra.com/tshirts/hm/hm-men-tshirt/11468714/buy"))
	assert.False(t, IsCheckoutURL("https://www.snapdeal.com/search?keyword=watch"))
}

func TestWaitForLoginSucceedsAfterRedirect(t *testing.T) {
	var calls int32
	current := func(ctx context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return "https://www.amazon.in/ap/signin", nil
		}
		return "https://www.amazon.in/", nil
	}

	u, err := waitForLogin(context.Background(), time.Second, 5*time.Millisecond, current)
	require.NoError(t, err)
	assert.Equal(t, "https://www.amazon.in/", u)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(3))
}

func TestWaitForLoginImmediate(t *testing.T) {
	current := func(ctx context.Context) (string, error) {
		return "https://www.flipkart.com/", nil
	}
	u, err := waitForLogin(context.Background(), time.Second, time.Hour, current)
	require.NoError(t, err)
	assert.Equal(t, "https://www.flipkart.com/", u)
}

func TestWaitForLoginTimeout(t *testing.T) {
	current := func(ctx context.Context) (string, error) {
		return "https://www.flipkart.com/account/login", nil
	}
	u, err := waitForLogin(context.Background(), 30*time.Millisecond, 5*time.Millisecond, current)
	assert.ErrorIs(t, err, apperrors.ErrLoginTimeout)
	assert.Equal(t, "https://www.flipkart.com/account/login", u)
}

func TestWaitForLoginReadErrors(t *testing.T) {
	current := func(ctx context.Context) (string, error) {
		return "", errors.New("target closed")
	}
	_, err := waitForLogin(context.Background(), 20*time.Millisecond, 5*time.Millisecond, current)
	assert.ErrorIs(t, err, apperrors.ErrLoginTimeout)
	assert.Contains(t, err.Error(), "target closed")
}

func TestWaitForLoginContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	current := func(ctx context.Context) (string, error) {
		cancel()
		return "https://www.amazon.in/ap/signin", nil
	}
	_, err := waitForLogin(ctx, time.Second, 5*time.Millisecond, current)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCookieFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cookies.json")

	cookies := []Cookie{
		{Name: "session-id", Value: "abc", Domain: ".amazon.in", Path: "/", Expires: 1893456000, Secure: true},
		{Name: "SN", Value: "xyz", Domain: ".flipkart.com", Path: "/", Expires: -1, HTTPOnly: true, SameSite: "Lax"},
	}
	require.NoError(t, WriteCookieFile(path, cookies))

	got, err := ReadCookieFile(path)
	require.NoError(t, err)
	assert.Equal(t, cookies, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestReadCookieFileMissing(t *testing.T) {
	got, err := ReadCookieFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestReadCookieFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := ReadCookieFile(path)
	assert.Error(t, err)
}

func TestToParamsDropsExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	params := toParams([]Cookie{
		{Name: "old", Value: "1", Domain: ".amazon.in", Expires: float64(now.Add(-time.Hour).Unix())},
		{Name: "fresh", Value: "2", Domain: ".amazon.in", Expires: float64(now.Add(time.Hour).Unix()), SameSite: "Strict"},
		{Name: "session", Value: "3", Domain: ".amazon.in", Expires: -1},
		{Name: "", Value: "4", Domain: ".amazon.in"},
	}, now)

	require.Len(t, params, 2)
	assert.Equal(t, "fresh", params[0].Name)
	assert.NotNil(t, params[0].Expires)
	assert.Equal(t, network.CookieSameSiteStrict, params[0].SameSite)
	assert.Equal(t, "session", params[1].Name)
	assert.Nil(t, params[1].Expires)
}

func TestFromNetworkMarksSessionCookies(t *testing.T) {
	got := fromNetwork([]*network.Cookie{
		{Name: "a", Value: "1", Domain: ".ajio.com", Path: "/", Expires: 123, Session: true},
		nil,
		{Name: "b", Value: "2", Domain: ".ajio.com", Path: "/", Expires: 456},
	})
	require.Len(t, got, 2)
	assert.Equal(t, float64(-1), got[0].Expires)
	assert.Equal(t, float64(456), got[1].Expires)
}
