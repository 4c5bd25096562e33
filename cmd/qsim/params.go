package main

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// paramPattern matches one gate parameter: a number or a pi expression.
// Examples: "1.5707", "pi", "pi/2", "3*pi/4", "-pi", "3.14e-2"
const paramPattern = `-?(?:\d*\.?\d*\*?pi(?:/\d+\.?\d*)?|\d+\.?\d*(?:[eE][+\-]?\d+)?)`

var piExprRegex = regexp.MustCompile(`^(-?)(\d*\.?\d*)\s*\*?\s*pi(?:\s*/\s*(\d+\.?\d*))?$`)

// parseParamExpr parses a plain number or a pi expression such as -3*pi/4.
func parseParamExpr(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if val, err := strconv.ParseFloat(s, 64); err == nil {
		return val, true
	}

	matches := piExprRegex.FindStringSubmatch(strings.ToLower(s))
	if matches == nil {
		return 0, false
	}

	coeff := 1.0
	if matches[2] != "" {
		var err error
		if coeff, err = strconv.ParseFloat(matches[2], 64); err != nil {
			return 0, false
		}
	}

	result := coeff * math.Pi

	if matches[3] != "" {
		denom, err := strconv.ParseFloat(matches[3], 64)
		if err != nil || denom == 0 {
			return 0, false
		}
		result /= denom
	}

	if matches[1] == "-" {
		result = -result
	}

	return result, true
}

// parseParams splits a comma separated parameter list. It returns false if any part fails.
func parseParams(input string) ([]float64, bool) {
	var params []float64
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		val, ok := parseParamExpr(part)
		if !ok {
			return nil, false
		}
		params = append(params, val)
	}
	return params, true
}
