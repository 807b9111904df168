// Package mcp provides an MCP (Model Context Protocol) server adapter for folio.
// It lets AI assistants convert recognizer payloads and review learned layout patterns.
package mcp

import "errors"

// ErrMissingConversionService is returned when the conversion service is not provided.
var ErrMissingConversionService = errors.New("mcp: conversion service is required")
