package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBodyPlainTextPassthrough(t *testing.T) {
	body := "Gold (April contract)\nContinues on a buy signal from 2,895."
	assert.Equal(t, body, NormalizeBody(body))
}

func TestNormalizeBodyStripsHTML(t *testing.T) {
	body := `<html><body><div>Gold (April contract)</div>` +
		`<p>Continues on a buy signal from 2,895 as long as there is no close below 2,870.</p>` +
		`<script>var x = 1;</script></body></html>`

	out := NormalizeBody(body)
	assert.Contains(t, out, "Gold (April contract)")
	assert.Contains(t, out, "buy signal from 2,895")
	assert.NotContains(t, out, "<p>")
	assert.NotContains(t, out, "var x")
}
