// Package words は固定の辞書から読みやすい試合コードを生成します。
package words

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand"
)

//go:embed words.json
var dictionaryJSON []byte

// コードの二語をつなぐ文字
const Separator = "-"

// Dictionary は試合コード用の単語を無作為に選びます。
type Dictionary struct {
	words []string
	intn  func(n int) int
}

// Load は埋め込まれた単語リストを読み込みます。intn のデフォルトは math/rand.Intn です。
func Load(intn func(n int) int) (*Dictionary, error) {
	var list []string
	if err := json.Unmarshal(dictionaryJSON, &list); err != nil {
		return nil, fmt.Errorf("parsing dictionary: %w", err)
	}
	return New(list, intn)
}

func New(list []string, intn func(n int) int) (*Dictionary, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("dictionary is empty")
	}
	if intn == nil {
		intn = rand.Intn
	}
	return &Dictionary{words: list, intn: intn}, nil
}

// Code は Separator でつないだ無作為な二語を返します。
// 一意とは限らないので、呼び出し側で衝突を確認します。
func (d *Dictionary) Code() string {
	return d.words[d.intn(len(d.words))] + Separator + d.words[d.intn(len(d.words))]
}

func (d *Dictionary) Len() int {
	return len(d.words)
}
