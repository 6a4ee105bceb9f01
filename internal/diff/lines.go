package diff

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/pagediff/internal/model"
)

// line is one visual line of page text.
type line struct {
	text   string
	key    string
	bounds model.Rect
	runs   []model.TextRun
}

// pageLines splits a page into lines. Text runs are grouped by baseline
// position when available; otherwise the plain text is split on newlines.
// Blank lines are dropped.
func pageLines(p *model.Page) []line {
	if len(p.Runs) == 0 {
		return textLines(p.Text)
	}

	runs := make([]model.TextRun, 0, len(p.Runs))
	for _, r := range p.Runs {
		if strings.TrimSpace(r.Text) != "" {
			runs = append(runs, r)
		}
	}
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].Y != runs[j].Y {
			return runs[i].Y < runs[j].Y
		}
		return runs[i].X < runs[j].X
	})

	out := make([]line, 0)
	var curY float64
	for _, r := range runs {
		if n := len(out); n > 0 && math.Abs(r.Y-curY) <= lineTolerance(r) {
			out[n-1].runs = append(out[n-1].runs, r)
			out[n-1].bounds = out[n-1].bounds.Union(r.Bounds())
			continue
		}
		out = append(out, line{runs: []model.TextRun{r}, bounds: r.Bounds()})
		curY = r.Y
	}

	for i := range out {
		l := &out[i]
		sort.SliceStable(l.runs, func(a, b int) bool { return l.runs[a].X < l.runs[b].X })
		parts := make([]string, len(l.runs))
		for k, r := range l.runs {
			parts[k] = strings.TrimSpace(r.Text)
		}
		l.text = strings.Join(parts, " ")
		l.key = lineKey(l.text)
	}
	return out
}

func textLines(text string) []line {
	out := make([]line, 0)
	for _, raw := range strings.Split(text, "\n") {
		t := strings.TrimSpace(raw)
		if t == "" {
			continue
		}
		out = append(out, line{text: t, key: lineKey(t)})
	}
	return out
}

// lineKey collapses whitespace so spacing changes are not text changes.
func lineKey(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func lineTolerance(r model.TextRun) float64 {
	switch {
	case r.Height > 0:
		return r.Height / 2
	case r.FontSize > 0:
		return r.FontSize / 2
	default:
		return 2
	}
}

// opKind is an edit script operation.
type opKind int

const (
	opEqual opKind = iota
	opDelete
	opInsert
)

// op refers to base line a and/or compare line b.
type op struct {
	kind opKind
	a, b int
}

// diffLines computes a line edit script via longest common subsequence.
// Deletions are emitted before insertions within a changed block.
func diffLines(base, compare []line) []op {
	n, m := len(base), len(compare)
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if base[i].key == compare[j].key {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	ops := make([]op, 0, n+m)
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case base[i].key == compare[j].key:
			ops = append(ops, op{kind: opEqual, a: i, b: j})
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			ops = append(ops, op{kind: opDelete, a: i, b: -1})
			i++
		default:
			ops = append(ops, op{kind: opInsert, a: -1, b: j})
			j++
		}
	}
	for ; i < n; i++ {
		ops = append(ops, op{kind: opDelete, a: i, b: -1})
	}
	for ; j < m; j++ {
		ops = append(ops, op{kind: opInsert, a: -1, b: j})
	}
	return ops
}

// changedSpan returns the rune offsets [start, end) in b of the part that
// differs from a, after removing the common prefix and suffix.
func changedSpan(a, b string) (int, int) {
	ra, rb := []rune(a), []rune(b)
	p := 0
	for p < len(ra) && p < len(rb) && ra[p] == rb[p] {
		p++
	}
	s := 0
	for s < len(ra)-p && s < len(rb)-p && ra[len(ra)-1-s] == rb[len(rb)-1-s] {
		s++
	}
	return p, len(rb) - s
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
