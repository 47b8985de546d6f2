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
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktokenloader "github.com/pkoukk/tiktoken-go-loader"
)

// EncodingName is the vocabulary every token count in this module is measured in.
const EncodingName = "cl100k_base"

var setLoaderOnce sync.Once

// TikToken encodes text with the cl100k_base vocabulary bundled by tiktoken-go-loader,
// so no network access is needed.
type TikToken struct {
	encoding *tiktoken.Tiktoken
}

func NewTikToken() (*TikToken, error) {
	setLoaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktokenloader.NewOfflineLoader())
	})
	encoding, err := tiktoken.GetEncoding(EncodingName)
	if err != nil {
		return nil, ErrTokenizationFailed{Message: "load " + EncodingName, Cause: err}
	}
	return &TikToken{encoding: encoding}, nil
}

// Encode treats special token markers such as <|endoftext|> as ordinary text.
func (t *TikToken) Encode(text string) []int {
	return t.encoding.Encode(text, nil, []string{})
}

func (t *TikToken) Decode(ids []int) string {
	return t.encoding.Decode(ids)
}
