// Package analyze computes a summary of a byte buffer: its size, its Shannon
// and absolute entropy, and a set of digests.
package analyze

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"math"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"golang.org/x/crypto/sha3"
)

// Report holds the analysis of one buffer.
type Report struct {
	Size            uint64
	ShannonEntropy  float64 // Bits per byte, in [0, 8].
	AbsoluteEntropy float64 // Size times ShannonEntropy over 8, in bytes.
	MD5             string
	SHA1            string
	SHA256          string
	SHA512          string
	SHA3_256        string
}

// Analyze builds the Report for buf.
func Analyze(buf []byte) Report {
	report := Report{
		Size:            uint64(len(buf)),
		ShannonEntropy:  ShannonEntropy(buf),
		AbsoluteEntropy: AbsoluteEntropy(buf),
	}

	digests := []struct {
		h   hash.Hash
		out *string
	}{
		{md5.New(), &report.MD5},
		{sha1.New(), &report.SHA1},
		{sha256.New(), &report.SHA256},
		{sha512.New(), &report.SHA512},
		{sha3.New256(), &report.SHA3_256},
	}
	hashes := make([]io.Writer, len(digests))
	for i, d := range digests {
		hashes[i] = d.h
	}
	_, _ = io.MultiWriter(hashes...).Write(buf)
	for _, d := range digests {
		*d.out = hex.EncodeToString(d.h.Sum(nil))
	}
	return report
}

// ShannonEntropy returns the Shannon entropy of buf in bits per byte. An empty
// buffer has zero entropy.
func ShannonEntropy(buf []byte) float64 {
	if len(buf) == 0 {
		return 0
	}
	var counts [256]uint64
	for _, b := range buf {
		counts[b]++
	}
	length := float64(len(buf))
	var entropy float64
	for _, count := range counts {
		if count == 0 {
			continue
		}
		p := float64(count) / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// AbsoluteEntropy returns the information content of buf in bytes: its
// length scaled by its Shannon entropy over the 8 bits of a byte.
func AbsoluteEntropy(buf []byte) float64 {
	return float64(len(buf)) * ShannonEntropy(buf) / 8
}

// Rows returns the report as label and value pairs in display order.
func (r Report) Rows() [][]string {
	return [][]string{
		{"Size", humanize.Bytes(r.Size)},
		{"Entropy (Sh)", strconv.FormatFloat(r.ShannonEntropy, 'f', -1, 64)},
		{"Entropy (So)", strconv.FormatFloat(r.AbsoluteEntropy, 'f', -1, 64)},
		{"MD5", r.MD5},
		{"SHA1", r.SHA1},
		{"SHA2-256", r.SHA256},
		{"SHA2-512", r.SHA512},
		{"SHA3-256", r.SHA3_256},
	}
}

// String renders the report as a bordered two-column table.
func (r Report) String() string {
	labelStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	valueStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return labelStyle
			}
			return valueStyle
		}).
		Rows(r.Rows()...)
	return t.String()
}
