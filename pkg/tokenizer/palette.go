/*
Copyright The Volcano Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package tokenizer

import (
	"fmt"
	"math"
	"strconv"

	colorful "github.com/lucasb-eyer/go-colorful"
)

const goldenRatio = 0.618033988749895

// HSL is a color with hue in degrees and saturation and lightness in percent.
type HSL struct {
	H float64
	S float64
	L float64
}

// CSS renders the color as a CSS hsl() function.
func (c HSL) CSS() string {
	return fmt.Sprintf("hsl(%s, %s%%, %s%%)", trimFloat(c.H), trimFloat(c.S), trimFloat(c.L))
}

// Hex renders the color as #rrggbb for terminals.
func (c HSL) Hex() string {
	return colorful.Hsl(c.H, c.S/100, c.L/100).Clamped().Hex()
}

func (c HSL) MarshalText() ([]byte, error) {
	return []byte(c.CSS()), nil
}

// TokenColor is the palette entry for one token chip.
type TokenColor struct {
	Background HSL `json:"background"`
	Border     HSL `json:"border"`
	Text       HSL `json:"text"`
}

// ColorForIndex spreads hues by the golden ratio so neighbouring tokens
// get clearly different pastel backgrounds.
func ColorForIndex(index int) TokenColor {
	hue := math.Mod(float64(index)*goldenRatio*360, 360)
	saturation := float64(60 + (index*17)%25)
	lightness := float64(80 + (index*13)%12)
	return TokenColor{
		Background: HSL{H: hue, S: saturation, L: lightness},
		Border:     HSL{H: hue, S: saturation, L: lightness - 20},
		Text:       HSL{H: hue, S: saturation + 15, L: lightness - 60},
	}
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
