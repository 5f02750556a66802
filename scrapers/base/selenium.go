package base

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
)

const defaultChromeDriverPath = "/usr/local/bin/chromedriver"

// Hides the usual webdriver fingerprints before the page scripts look
const maskScript = `
Object.defineProperty(navigator, 'webdriver', {get: () => undefined});
window.chrome = {runtime: {}};
delete window.cdc_adoQpoasnfa76pfcZLmcfl_Array;
delete window.cdc_adoQpoasnfa76pfcZLmcfl_Promise;
delete window.cdc_adoQpoasnfa76pfcZLmcfl_Symbol;
`

const seleniumScroll = `window.scrollTo({top: Math.floor(Math.random() * document.body.scrollHeight / 2), behavior: 'smooth'});`

// FetchDocumentSelenium drives a fresh chromedriver session. It is the last
// resort for pages that detect CDP automation.
func (b *BaseScraper) FetchDocumentSelenium(ctx context.Context, url string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.Ports == nil {
		return nil, fmt.Errorf("selenium: no port manager configured")
	}

	driverPath := b.ChromeDriverPath
	if driverPath == "" {
		driverPath = defaultChromeDriverPath
	}

	port, err := b.Ports.GetPort()
	if err != nil {
		return nil, fmt.Errorf("port error: %w", err)
	}
	defer b.Ports.ReleasePort(port)

	service, err := selenium.NewChromeDriverService(driverPath, port)
	if err != nil {
		return nil, fmt.Errorf("error starting Chrome driver service: %w", err)
	}
	defer service.Stop()

	driver, err := selenium.NewRemote(chromeCapabilities(), fmt.Sprintf("http://localhost:%d/wd/hub", port))
	if err != nil {
		return nil, fmt.Errorf("error creating WebDriver: %w", err)
	}
	defer driver.Quit()

	if err := driver.SetPageLoadTimeout(60 * time.Second); err != nil {
		return nil, err
	}
	if err := driver.Get(url); err != nil {
		return nil, fmt.Errorf("navigation error: %w", err)
	}
	_, _ = driver.ExecuteScript(maskScript, nil)

	if err := sleepContext(ctx, 2*time.Second); err != nil {
		return nil, err
	}
	_, _ = driver.ExecuteScript(seleniumScroll, nil)
	if err := sleepContext(ctx, 2*time.Second); err != nil {
		return nil, err
	}

	html, err := driver.PageSource()
	if err != nil {
		return nil, fmt.Errorf("page source error: %w", err)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func chromeCapabilities() selenium.Capabilities {
	caps := selenium.Capabilities{"browserName": "chrome"}
	caps.AddChrome(chrome.Capabilities{
		Args: []string{
			"--headless=new",
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-blink-features=AutomationControlled",
			"--disable-extensions",
			"--disable-gpu",
			"--window-size=1920,1080",
			"--user-agent=" + userAgent,
		},
		ExcludeSwitches: []string{"enable-automation"},
		Prefs: map[string]interface{}{
			"profile.default_content_setting_values.notifications": 2,
		},
	})
	return caps
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
