// Copyright 2024 The hookline Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hookline

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Outcome", func() {

	It("starts empty", func() {
		o := &Outcome{}
		Expect(o.Results()).To(BeEmpty())
		Expect(o.Err()).NotTo(HaveOccurred())
	})

	It("lets a wrapper force a replacement result", func() {
		o := &Outcome{results: []any{1, 2}}
		o.ForceResult(42)
		Expect(o.Results()).To(Equal([]any{42}))
	})

	It("lets a wrapper force an error", func() {
		o := &Outcome{results: []any{1}}
		sentinel := errors.New("boom")
		o.ForceError(sentinel)
		Expect(o.Err()).To(MatchError(sentinel))
	})
})
