package main

import (
	"io"
)

type FlagType int
type FlagMap map[FlagType]string

const (
	listenAddress FlagType = iota
	servicePort

	configPath
	opaPath

	logFormat
	debugClient
)

type AppConfig struct {
	hydratorConfig io.ReadCloser
	opaConfig      io.ReadCloser
}
