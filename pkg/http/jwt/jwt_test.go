// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "bf284d03-ba65-42d4-a9fe-0d2fbfe61060"

func TestGenAndParseToken(t *testing.T) {
	token, exp, err := GenToken("7", "sess-1", []byte(secret), time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := ParseToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.UserId)
	assert.Equal(t, "sess-1", claims.ID)
	assert.Equal(t, "kontrol", claims.Issuer)
}

func TestParseToken_Rejects(t *testing.T) {
	expired, _, err := GenToken("7", "s", []byte(secret), -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(expired, secret)
	assert.ErrorIs(t, err, ErrTokenExpired)

	token, _, err := GenToken("7", "s", []byte(secret), time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(token, "another-secret")
	assert.ErrorContains(t, err, "invalid token")

	_, err = ParseToken("not.a.token", secret)
	assert.Error(t, err)
}

func TestGenToken_EmptySecret(t *testing.T) {
	_, _, err := GenToken("7", "s", nil, time.Hour)
	assert.Error(t, err)
}
