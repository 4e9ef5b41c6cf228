package config

import "errors"

var ErrReadConfigFail = errors.New("failed to read config file")
var ErrConfigParsingFail = errors.New("failed to parse config")
var ErrInvalidConfig = errors.New("invalid config")
