package main

import "github.com/Abdullah1738/alt-capacity/internal/logger"

var log = logger.RegisterSubSystem("ALTL")
