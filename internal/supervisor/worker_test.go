package supervisor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPollErr(t *testing.T) {
	cases := []struct {
		err  error
		want pollErrClass
	}{
		{errors.New("Conflict: terminated by other getUpdates request"), pollErrConflict},
		{errors.New("unable to fetch updates, 409 returned"), pollErrConflict},
		{errors.New("Bad Gateway: 502"), pollErrServerSide},
		{errors.New("internal server error 500"), pollErrServerSide},
		{errors.New("dial tcp: connection refused"), pollErrOther},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, classifyPollErr(c.err), c.err.Error())
	}
}
