// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/* Package eam is a simulation-based inference toolkit for evidence-accumulation
decision models (EAMs). It declares models as three tiers of parameter
formulas (condition, between-trial, item), simulates large synthetic
datasets in parallel chunks, reduces them with a composable summary-statistic
pipeline, and estimates posteriors via Approximate Bayesian Computation.

The numerics build on [gonum.org/v1/gonum] for distributions and matrices,
and the on-disk dataset and grouped-aggregation machinery build on
[github.com/emer/etable/v2], following the same table/agg/split idiom used
throughout the emergent/CCN simulation stack.
*/
package eam
