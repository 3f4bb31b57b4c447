package ai

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
)

const maxWordLength = 100

// WordPieceTokenizer maps text onto the token ids of a BERT-style vocab file
// (one token per line, line number = id).
type WordPieceTokenizer struct {
	vocab map[string]int64
	unkID int64
	clsID int64
	sepID int64
	padID int64
}

func NewWordPieceTokenizer(vocabPath string) (*WordPieceTokenizer, error) {
	f, err := os.Open(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("open vocab file failed: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	sc := bufio.NewScanner(f)
	var id int64
	for sc.Scan() {
		token := strings.TrimSpace(sc.Text())
		if token != "" {
			vocab[token] = id
		}
		id++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read vocab file failed: %w", err)
	}

	t := &WordPieceTokenizer{vocab: vocab}
	var ok bool
	if t.unkID, ok = vocab["[UNK]"]; !ok {
		return nil, fmt.Errorf("vocab missing [UNK] token")
	}
	if t.clsID, ok = vocab["[CLS]"]; !ok {
		return nil, fmt.Errorf("vocab missing [CLS] token")
	}
	if t.sepID, ok = vocab["[SEP]"]; !ok {
		return nil, fmt.Errorf("vocab missing [SEP] token")
	}
	if t.padID, ok = vocab["[PAD]"]; !ok {
		return nil, fmt.Errorf("vocab missing [PAD] token")
	}
	return t, nil
}

// Encode converts text into fixed-length id and attention-mask slices of
// maxLen: [CLS] pieces... [SEP] followed by [PAD] to length. Text longer than
// the window is truncated.
func (t *WordPieceTokenizer) Encode(text string, maxLen int) (ids, mask []int64) {
	ids = make([]int64, 0, maxLen)
	ids = append(ids, t.clsID)
	for _, word := range basicTokenize(text) {
		for _, id := range t.wordPiece(word) {
			if len(ids) >= maxLen-1 {
				break
			}
			ids = append(ids, id)
		}
	}
	ids = append(ids, t.sepID)

	mask = make([]int64, maxLen)
	for i := range ids {
		mask[i] = 1
	}
	for len(ids) < maxLen {
		ids = append(ids, t.padID)
	}
	return ids, mask
}

// wordPiece splits a single lowercased word into subword ids by greedy
// longest-match, with continuation pieces prefixed "##".
func (t *WordPieceTokenizer) wordPiece(word string) []int64 {
	if len(word) > maxWordLength {
		return []int64{t.unkID}
	}

	var pieces []int64
	runes := []rune(word)
	start := 0
	for start < len(runes) {
		end := len(runes)
		var matched int64 = -1
		for end > start {
			piece := string(runes[start:end])
			if start > 0 {
				piece = "##" + piece
			}
			if id, ok := t.vocab[piece]; ok {
				matched = id
				break
			}
			end--
		}
		if matched < 0 {
			return []int64{t.unkID}
		}
		pieces = append(pieces, matched)
		start = end
	}
	return pieces
}

// basicTokenize lowercases and splits on whitespace, treating punctuation as
// standalone tokens.
func basicTokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			tokens = append(tokens, string(r))
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return tokens
}
