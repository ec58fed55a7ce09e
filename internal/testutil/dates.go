package testutil

import "context"

// FixtureDates implements intent.FirstLogDateProvider with a canned answer.
// A zero First means "no history".
type FixtureDates struct {
	First string
	Err   error
}

func (d FixtureDates) FirstLogDate(context.Context, string) (string, bool, error) {
	if d.Err != nil {
		return "", false, d.Err
	}
	if d.First == "" {
		return "", false, nil
	}
	return d.First, true, nil
}
