package osmparser

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported map file format")
)

type osmWay struct {
	id    string
	nodes []int64
	tags  map[string]string
}
