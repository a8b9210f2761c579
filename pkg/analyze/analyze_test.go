package analyze

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func allBytes() []byte {
	buf := make([]byte, 256)
	for i := range buf {
		buf[i] = byte(i)
	}
	return buf
}

func TestShannonEntropy(t *testing.T) {
	require.Equal(t, 0.0, ShannonEntropy(nil))
	require.Equal(t, 0.0, ShannonEntropy([]byte("aaaa")))
	require.Equal(t, 1.0, ShannonEntropy([]byte("abab")))
	require.Equal(t, 8.0, ShannonEntropy(allBytes()))
}

func TestAbsoluteEntropy(t *testing.T) {
	require.Equal(t, 0.0, AbsoluteEntropy(nil))
	require.Equal(t, 256.0, AbsoluteEntropy(allBytes()))
	require.Equal(t, 0.5, AbsoluteEntropy([]byte("abab")))
}

func TestAnalyze(t *testing.T) {
	report := Analyze([]byte("abc"))
	require.EqualValues(t, 3, report.Size)
	require.Equal(t, "900150983cd24fb0d6963f7d28e17f72", report.MD5)
	require.Equal(t, "a9993e364706816aba3e25717850c26c9cd0d89d", report.SHA1)
	require.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", report.SHA256)
	require.Equal(t, "ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a"+
		"2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f", report.SHA512)
	require.Equal(t, "3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532", report.SHA3_256)

	empty := Analyze(nil)
	require.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", empty.MD5)
	require.Zero(t, empty.ShannonEntropy)
}

func TestReport_String(t *testing.T) {
	out := Analyze(allBytes()).String()
	for _, label := range []string{"Size", "Entropy (Sh)", "Entropy (So)", "MD5", "SHA1", "SHA2-256", "SHA2-512", "SHA3-256"} {
		require.Contains(t, out, label)
	}
	require.Contains(t, out, "256 B")
	require.Contains(t, out, " 8 ")
	require.GreaterOrEqual(t, strings.Count(out, "\n"), 8)
}
