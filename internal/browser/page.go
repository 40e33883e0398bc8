package browser

import (
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"grabdoc/internal/render"
)

// cssPixelsPerInch CSS 像素与 PrintToPDF 所用英寸的换算比例
const cssPixelsPerInch = 96.0

// elementTimeout 元素查找超时，元素缺失时尽快失败而不是无限重试
const elementTimeout = 15 * time.Second

// Page 基于 rod 页面实现 render.Session
type Page struct {
	page    *rod.Page
	timeout time.Duration
}

var _ render.Session = (*Page)(nil)

// Navigate 在导航超时内加载 url 并等待网络空闲
func (p *Page) Navigate(url string) error {
	if err := p.page.Timeout(p.timeout).Navigate(url); err != nil {
		return fmt.Errorf("%w: failed to navigate to %s: %v", render.ErrUnavailable, url, err)
	}
	if err := p.page.Timeout(p.timeout).WaitLoad(); err != nil {
		return fmt.Errorf("%w: failed to wait for page load: %v", render.ErrUnavailable, err)
	}

	wait := p.page.Timeout(p.timeout).WaitRequestIdle(
		500*time.Millisecond, nil, nil,
		[]proto.NetworkResourceType{proto.NetworkResourceTypeImage, proto.NetworkResourceTypeMedia},
	)
	wait()
	return nil
}

func (p *Page) Eval(js string, args ...interface{}) (gson.JSON, error) {
	res, err := p.page.Eval(js, args...)
	if err != nil {
		return gson.New(nil), err
	}
	return res.Value, nil
}

func (p *Page) element(selector string) (*rod.Element, error) {
	el, err := p.page.Timeout(elementTimeout).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("element %s: %w", selector, err)
	}
	return el.CancelTimeout(), nil
}

func (p *Page) Click(selector string) error {
	el, err := p.element(selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (p *Page) PageDown() error {
	return p.page.Keyboard.Press(input.PageDown)
}

func (p *Page) Screenshot(selector string, vp render.Viewport) ([]byte, error) {
	if err := p.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             vp.Width,
		Height:            vp.Height,
		DeviceScaleFactor: vp.Scale,
	}); err != nil {
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}
	el, err := p.element(selector)
	if err != nil {
		return nil, err
	}
	return el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
}

// PrintPDF 不设超时，大页面打印本来就慢
func (p *Page) PrintPDF(width, height int) ([]byte, error) {
	r, err := p.page.PDF(&proto.PagePrintToPDF{
		PaperWidth:      gson.Num(float64(width) / cssPixelsPerInch),
		PaperHeight:     gson.Num(float64(height) / cssPixelsPerInch),
		MarginTop:       gson.Num(0),
		MarginBottom:    gson.Num(0),
		MarginLeft:      gson.Num(0),
		MarginRight:     gson.Num(0),
		PrintBackground: true,
	})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (p *Page) HTML() (string, error) {
	return p.page.HTML()
}

func (p *Page) Close() error {
	return p.page.Close()
}
