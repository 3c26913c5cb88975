package ocr

import (
	"strconv"
	"strings"
)

type lineKey struct {
	page, block, par, line int
}

// ParseTSV folds tesseract TSV word rows into lines. A line's confidence is
// the mean of its word confidences scaled to [0,1]; rows with conf -1 carry
// no text and are ignored.
func ParseTSV(output []byte) []Line {
	type acc struct {
		words []string
		sum   float64
		n     int
	}
	var order []lineKey
	lines := map[lineKey]*acc{}

	for i, row := range strings.Split(string(output), "\n") {
		if i == 0 && strings.HasPrefix(row, "level") {
			continue
		}
		cols := strings.Split(strings.TrimRight(row, "\r"), "\t")
		if len(cols) < 12 {
			continue
		}
		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil || conf < 0 {
			continue
		}
		text := strings.TrimSpace(strings.Join(cols[11:], "\t"))
		if text == "" {
			continue
		}
		key := lineKey{atoi(cols[1]), atoi(cols[2]), atoi(cols[3]), atoi(cols[4])}
		a, ok := lines[key]
		if !ok {
			a = &acc{}
			lines[key] = a
			order = append(order, key)
		}
		a.words = append(a.words, text)
		a.sum += conf
		a.n++
	}

	out := make([]Line, 0, len(order))
	for _, key := range order {
		a := lines[key]
		out = append(out, Line{
			Text:       strings.Join(a.words, " "),
			Confidence: min(1, a.sum/float64(a.n)/100),
		})
	}
	return out
}

func atoi(s string) int {
	v, _ := strconv.Atoi(strings.TrimSpace(s))
	return v
}
