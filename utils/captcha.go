package utils

import (
	"github.com/mojocn/base64Captcha"
)

// Captcha issues digit captchas for the signup form.
type Captcha struct {
	store  base64Captcha.Store
	driver base64Captcha.Driver
}

func NewCaptcha(cache Cache) *Captcha {
	return &Captcha{
		store: newCacheCaptchaStore(cache, 0),
		// width 120, height 40, length 5
		driver: base64Captcha.NewDriverDigit(40, 120, 5, 0.7, 80),
	}
}

// Generate returns (id, dataURI) for the form to display.
func (c *Captcha) Generate() (string, string, error) {
	id, b64, _, err := base64Captcha.NewCaptcha(c.driver, c.store).Generate()
	return id, b64, err
}

// Verify checks the answer and consumes the captcha either way.
func (c *Captcha) Verify(id, answer string) bool {
	if id == "" || answer == "" {
		return false
	}
	return c.store.Verify(id, answer, true)
}
