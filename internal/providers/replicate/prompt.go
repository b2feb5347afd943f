package replicate

import (
	"fmt"

	"photofilter/internal/domain"
)

const (
	// DefaultVersion pins the photomaker-style model used for every style.
	DefaultVersion = "tencentarc/photomaker-style:467d062309da518648ba89d226490e02b8ed09b5abc15026e54e31c5a8cd0769"

	negativePrompt = "realistic, photo-realistic, worst quality, greyscale, bad anatomy, bad hands, error, text"
	promptSuffix   = "high quality, detailed"
)

var styleText = map[domain.Style]string{
	domain.StyleCartoon:    "A person in cartoon style, animated, colorful, 3d CGI, art by Pixar",
	domain.StyleAnime:      "A person in anime style, manga, japanese animation style",
	domain.StyleCyberpunk:  "A person in cyberpunk style, neon lights, futuristic, digital art",
	domain.StyleWatercolor: "A person in watercolor painting style, artistic, soft brushstrokes",
	domain.StyleOldPhoto:   "A person in vintage photograph style, sepia tone, aged, historical",
}

// Instruction returns the prompt sent to the model for style.
func Instruction(style domain.Style) (string, error) {
	text, ok := styleText[style]
	if !ok {
		return "", fmt.Errorf("%w: unknown style %q", domain.ErrInvalidInput, style)
	}
	return text + ", " + promptSuffix, nil
}
