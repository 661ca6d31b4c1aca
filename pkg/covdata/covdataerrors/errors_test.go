package covdataerrors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gocoverage/covdata/pkg/covdata/covdataerrors"
)

func TestDataErrorMessage(t *testing.T) {
	err := covdataerrors.NewDataError("Can't add lines to existing arc data")
	assert.EqualError(t, err, "Can't add lines to existing arc data")
}

func TestDataFileErrorWrapsUnderlying(t *testing.T) {
	underlying := errors.New("disk full")
	err := covdataerrors.NewDataFileError("/tmp/.coverage", underlying)

	assert.Contains(t, err.Error(), "/tmp/.coverage")
	assert.Contains(t, err.Error(), "disk full")
	assert.True(t, errors.Is(err, underlying))
}

func TestUnrecognizedSerializationErrorTruncatesHead(t *testing.T) {
	data := make([]byte, 100)
	err := covdataerrors.NewUnrecognizedSerializationError(data)

	assert.Equal(t, 100, err.Len)
	assert.Len(t, err.Head, 40)
}

func TestConfigErrorMessage(t *testing.T) {
	err := covdataerrors.NewConfigError("fail_under=%v is invalid. Must be between 0 and 100.", 150.0)
	assert.EqualError(t, err, "fail_under=150 is invalid. Must be between 0 and 100.")
}
