// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tradecron

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// expandBriefFormat pads a spec with "*" until every cron field is present.
// Modifier tokens such as @close do not count as fields.
func expandBriefFormat(spec string) string {
	tokens := strings.Fields(spec)

	fields := 0
	for _, token := range tokens {
		if !strings.HasPrefix(token, "@") {
			fields++
		}
	}

	for ; fields < 5; fields++ {
		tokens = append(tokens, "*")
	}

	return strings.Join(tokens, " ")
}

// offsetToken reads a minute or hour offset; "*" means no offset
func offsetToken(token, field string) (int, error) {
	if token == "*" {
		return 0, nil
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		log.Error().Str("Field", field).Str("Token", token).Msg("could not parse offset")
		return 0, ErrMalformedTimeSpec
	}
	return n, nil
}

// parseTimeRelativeTo shifts the minute and hour fields of tokens by the
// anchor hours:minutes and returns a plain 5 field cron spec. The result must
// stay within the same day.
func parseTimeRelativeTo(tokens []string, hours int, minutes int) (string, error) {
	offsetMin, err := offsetToken(tokens[0], "minute")
	if err != nil {
		return "", err
	}
	offsetHr, err := offsetToken(tokens[1], "hour")
	if err != nil {
		return "", err
	}

	total := (hours+offsetHr)*60 + minutes + offsetMin
	if total < 0 || total >= 24*60 {
		return "", ErrFieldOutOfBounds
	}

	return fmt.Sprintf("%d %d %s %s %s", total%60, total/60, tokens[2], tokens[3], tokens[4]), nil
}
