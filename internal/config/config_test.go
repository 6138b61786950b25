package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesOptionsOverDecodedValues(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
c_in: 3
h: 16
w: 16
c_out: 4
k_h: 3
k_w: 3
stride: 1
padding: 1
dilation: 1
seed: 7
`), 0o644))

	cfg, err := Load(p, WithSeed(99))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.CIn)
	assert.Equal(t, int64(99), cfg.Seed, "option must win over the decoded value")
}

func TestValidateRejectsNonPositiveShape(t *testing.T) {
	cfg := Default()
	cfg.CIn = 0
	assert.Error(t, cfg.Validate())
}

func TestParamsNormalisesDilation(t *testing.T) {
	cfg := Default()
	cfg.Dilation = 0
	assert.Equal(t, 1, cfg.Params().Dilation)
}
