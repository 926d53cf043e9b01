// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package backend maps a user-declared model name plus the set of
// resolved formula LHS names to one of the three concrete kernels
// (spec.md §4.2).
package backend

import (
	"strings"

	"github.com/y-guang/eam/eamerr"
)

// Backend identifies the concrete integrator kernel to drive.
type Backend string

const (
	DDM1B Backend = "ddm"
	DDM2B Backend = "ddm_2b"
	LCAGI Backend = "lca_gi"
)

// Route applies the detector rules in spec.md §4.2, in order, and fails
// if zero or more than one detector fires.
func Route(model string, lhsNames map[string]bool) (Backend, error) {
	const op = "backend.Route"
	m := strings.ToLower(strings.TrimSpace(model))

	var fired []Backend
	switch m {
	case "ddm-2b", "rdm", "lfm", "lba":
		fired = append(fired, DDM2B)
	case "ddm", "ddm-1b":
		if m == "ddm" && lhsNames["A_upper"] {
			fired = append(fired, DDM2B)
		} else {
			fired = append(fired, DDM1B)
		}
	case "lca", "lca-gi":
		fired = append(fired, LCAGI)
	default:
		return "", eamerr.New(eamerr.UnknownModel, op, "unrecognized model "+model)
	}

	if len(fired) == 0 {
		return "", eamerr.New(eamerr.UnknownModel, op, "unrecognized model "+model)
	}
	if len(fired) > 1 {
		return "", eamerr.New(eamerr.AmbiguousModel, op, "model "+model+" matched more than one backend")
	}
	return fired[0], nil
}

// RequiredParams lists the formula LHS names (or PriorParams keys) a
// backend's kernel needs a value for, per spec.md §4.3's common contract
// for each kernel family.
func RequiredParams(b Backend) []string {
	switch b {
	case DDM1B:
		return []string{"V", "A"}
	case DDM2B:
		return []string{"V", "A_upper", "A_lower"}
	case LCAGI:
		return []string{"V", "Beta", "K", "A"}
	default:
		return nil
	}
}
