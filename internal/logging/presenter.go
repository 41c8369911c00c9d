// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"errors"
	"strings"

	apperrors "supatodo/cli/internal/errors"
)

// PresentError renders err for the console under context. Secrets are masked
// in both parts. Joined errors, such as a config validation report, are listed
// one per line, and a rejected session gets the login hint.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(Mask(context))

	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) && len(joined.Unwrap()) > 1 {
		b.WriteString(":")
		for _, e := range joined.Unwrap() {
			b.WriteString("\n  - ")
			b.WriteString(Mask(e.Error()))
		}
	} else {
		b.WriteString(": ")
		b.WriteString(Mask(err.Error()))
	}

	if apperrors.IsKind(err, apperrors.AuthFailed) {
		b.WriteString("\n")
		b.WriteString(Hint(FailureAuth))
	}
	return b.String()
}
