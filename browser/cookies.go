package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// Cookie is one entry of the session file
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"` // Unix seconds, <= 0 for session cookies
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// SaveCookies dumps every browser cookie to the session file
func (s *Session) SaveCookies(ctx context.Context) error {
	if s.opts.SessionFile == "" {
		return nil
	}

	var raw []*network.Cookie
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return fmt.Errorf("read browser cookies: %w", err)
	}

	cookies := fromNetwork(raw)
	if err := WriteCookieFile(s.opts.SessionFile, cookies); err != nil {
		return err
	}
	s.log.Info().Int("count", len(cookies)).Str("file", s.opts.SessionFile).Msg("Session cookies saved")
	return nil
}

// LoadCookies restores the session file into the browser. A missing file is not an error.
func (s *Session) LoadCookies(ctx context.Context) error {
	if s.opts.SessionFile == "" {
		return nil
	}

	cookies, err := ReadCookieFile(s.opts.SessionFile)
	if err != nil {
		return err
	}
	if len(cookies) == 0 {
		return nil
	}

	params := toParams(cookies, time.Now())
	err = s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.SetCookies(params).Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("restore browser cookies: %w", err)
	}
	s.log.Info().Int("count", len(params)).Str("file", s.opts.SessionFile).Msg("Session cookies loaded")
	return nil
}

// ReadCookieFile reads a session file; a missing file yields no cookies
func ReadCookieFile(path string) ([]Cookie, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("decode session file %s: %w", path, err)
	}
	return cookies, nil
}

// WriteCookieFile replaces the session file atomically
func WriteCookieFile(path string, cookies []Cookie) error {
	if cookies == nil {
		cookies = []Cookie{}
	}
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cookies: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return os.Rename(tmp, path)
}

func fromNetwork(raw []*network.Cookie) []Cookie {
	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		if c == nil {
			continue
		}
		expires := c.Expires
		if c.Session {
			expires = -1
		}
		cookies = append(cookies, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		})
	}
	return cookies
}

// toParams converts stored cookies, dropping the ones already expired at now
func toParams(cookies []Cookie, now time.Time) []*network.CookieParam {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" || c.Domain == "" {
			continue
		}
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if c.SameSite != "" {
			p.SameSite = network.CookieSameSite(c.SameSite)
		}
		if c.Expires > 0 {
			exp := time.Unix(int64(c.Expires), 0)
			if !exp.After(now) {
				continue
			}
			t := cdp.TimeSinceEpoch(exp)
			p.Expires = &t
		}
		params = append(params, p)
	}
	return params
}
