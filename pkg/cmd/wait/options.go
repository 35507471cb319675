package wait

import (
	"time"

	"github.com/maxgio92/tracey/pkg/cmd/options"
)

type Options struct {
	addr    string
	timeout time.Duration

	*options.CommonOptions
}
