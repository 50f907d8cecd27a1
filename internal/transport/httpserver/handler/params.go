package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const maxPageSize = 100

func parseIntParam(value string, fallback int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return 0, fmt.Errorf("invalid int")
	}
	return parsed, nil
}

func parseDecimalParam(value string) (*decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parsePage(limitValue, offsetValue string) (int, int, error) {
	limit, err := parseIntParam(limitValue, 20)
	if err != nil {
		return 0, 0, fmt.Errorf("limit must be a non-negative integer")
	}
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err := parseIntParam(offsetValue, 0)
	if err != nil {
		return 0, 0, fmt.Errorf("offset must be a non-negative integer")
	}
	return limit, offset, nil
}
