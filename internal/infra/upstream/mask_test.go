package upstream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskerRemovesSecrets(t *testing.T) {
	m := NewMasker("ABC+123")

	require.Equal(t, "https://api.hrfco.go.kr/[REDACTED]/dam/info.json",
		m.URL("https://api.hrfco.go.kr/ABC+123/dam/info.json"))
	require.Equal(t, "https://apis.data.go.kr/x?serviceKey=[REDACTED]&LAWD_CD=11110",
		m.URL("https://apis.data.go.kr/x?serviceKey=ABC%2B123&LAWD_CD=11110"))
	require.Equal(t, "call failed: token=[REDACTED]", m.String("call failed: token=zzz"))
}

func TestNilMaskerStillMasksParams(t *testing.T) {
	var m *Masker
	require.Equal(t, "a?key=[REDACTED]", m.String("a?key=value"))
}
