package chorerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUndefinedModelErrorMessage(t *testing.T) {
	err := UndefinedModel([]string{"ghost-model"})
	assert.Contains(t, err.Error(), "Workflow configuration references undefined model(s): ghost-model")
}

func TestConfigInvalidJoinsMultipleNames(t *testing.T) {
	err := &ConfigInvalid{Reason: "bad models", Names: []string{"a", "b"}}
	assert.Equal(t, "bad models: a, b", err.Error())
}

func TestConfigInvalidOmitsNamesWhenEmpty(t *testing.T) {
	err := &ConfigInvalid{Reason: "malformed workflow JSON"}
	assert.Equal(t, "malformed workflow JSON", err.Error())
}

func TestTransportErrorUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := &TransportError{Cause: cause}
	assert.ErrorIs(t, err, cause)
}

func TestRecoverable(t *testing.T) {
	cases := []struct {
		stage Stage
		want  bool
	}{
		{StageAnalyzer, true},
		{StageSelector, true},
		{StageWorker, false},
		{StageSynthesizer, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Recoverable(c.stage, errors.New("boom")), "stage %s", c.stage)
	}
}
