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

package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sistemakontrol/kontrol/internal/model"
	"github.com/sistemakontrol/kontrol/internal/policy"
	"github.com/sistemakontrol/kontrol/internal/repo"
	"github.com/sistemakontrol/kontrol/pkg/cache"
	"github.com/sistemakontrol/kontrol/pkg/http"
	"github.com/sistemakontrol/kontrol/pkg/http/jwt"
	"github.com/sistemakontrol/kontrol/pkg/http/middleware"
	"github.com/sistemakontrol/kontrol/pkg/id"
	"github.com/sistemakontrol/kontrol/pkg/log"
	"github.com/sistemakontrol/kontrol/pkg/metrics"
)

const minPasswordLen = 8

// ErrBadCredentials is returned by Login for an unknown user, a disabled
// user or a wrong password alike.
var ErrBadCredentials = errors.New("incorrect username or password")

type UserService struct {
	repos   *repo.Repositories
	cache   cache.ICache
	auth    http.Auth
	metrics *metrics.Kontrol
}

func NewUserService(repos *repo.Repositories, cache cache.ICache, auth http.Auth, m *metrics.Kontrol) *UserService {
	return &UserService{repos: repos, cache: cache, auth: auth, metrics: m}
}

// Register creates an engineer account. The role is never taken from the client.
func (us *UserService) Register(ctx context.Context, req *model.Register) (*model.UserInfo, error) {
	u, err := us.create(ctx, &model.AddUserReq{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      model.RoleEngineer,
	})
	if err != nil {
		return nil, err
	}
	info := u.Info()
	return &info, nil
}

// AddUser is the administrative create, the only path that picks a role.
func (us *UserService) AddUser(ctx context.Context, req *model.AddUserReq) (*model.User, error) {
	return us.create(ctx, req)
}

func (us *UserService) create(ctx context.Context, req *model.AddUserReq) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	verr := &model.ValidationError{}
	if username == "" {
		verr.Add("username", "required")
	}
	if len(req.Password) < minPasswordLen {
		verr.Add("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	if !req.Role.IsValid() {
		verr.Add("role", fmt.Sprintf("unknown role %q", req.Role))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	exists, err := us.repos.User.ExistsByUsername(ctx, username)
	if err != nil {
		log.Errorw("check username failed", "username", username, "error", err)
		return nil, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return nil, model.NewValidationError("username", http.UserAlreadyExist.Msg)
	}

	hash, err := getPasswordHash(req.Password)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Username:  username,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
		Password:  hash,
		Role:      req.Role,
		IsEnabled: 1,
	}
	if err := us.repos.User.Create(ctx, u); err != nil {
		log.Errorw("create user failed", "username", username, "error", err)
		return nil, fmt.Errorf("create user: %w", err)
	}
	log.Infow("user created", "userId", u.ID, "username", u.Username, "role", u.Role)
	return u, nil
}

// Login checks the password and opens a session. The token id is the
// session id; the session lives in the cache for the token's lifetime.
func (us *UserService) Login(ctx context.Context, req *model.Login) (*model.LoginResp, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, model.NewValidationError("username", http.UsernameArePasswordIsRequired.Msg)
	}
	u, err := us.repos.User.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, ErrBadCredentials
		}
		log.Errorw("login lookup failed", "username", req.Username, "error", err)
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u.IsEnabled != 1 || !comparePassword(u.Password, req.Password) {
		log.Warnw("login rejected", "username", req.Username)
		return nil, ErrBadCredentials
	}

	ttl := us.auth.AccessExpire * time.Minute
	userID := strconv.FormatUint(u.ID, 10)
	sessionID := id.GetUlid()
	token, expireAt, err := jwt.GenToken(userID, sessionID, []byte(us.auth.SecretKey), ttl)
	if err != nil {
		log.Errorw("failed to generate token", "userId", u.ID, "error", err)
		return nil, err
	}
	if err := us.cache.Set(ctx, us.sessionKey(userID, sessionID), u.Username, ttl).Err(); err != nil {
		log.Errorw("failed to store session", "userId", u.ID, "error", err)
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &model.LoginResp{
		UserInfo:    u.Info(),
		AccessToken: token,
		ExpireAt:    expireAt.Unix(),
	}, nil
}

// Logout revokes the session behind claims. Revoking twice is not an error.
func (us *UserService) Logout(ctx context.Context, claims *jwt.AuthClaims) error {
	if err := us.cache.Del(ctx, us.sessionKey(claims.UserId, claims.ID)).Err(); err != nil {
		log.Errorw("failed to revoke session", "userId", claims.UserId, "error", err)
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Verify resolves valid token claims to an actor. A revoked session, a
// removed user and a disabled user all answer middleware.ErrSessionRevoked.
func (us *UserService) Verify(ctx context.Context, claims *jwt.AuthClaims) (*policy.Actor, error) {
	n, err := us.cache.Exists(ctx, us.sessionKey(claims.UserId, claims.ID)).Result()
	if err != nil {
		return nil, fmt.Errorf("check session: %w", err)
	}
	if n == 0 {
		return nil, middleware.ErrSessionRevoked
	}
	uid, err := strconv.ParseUint(claims.UserId, 10, 64)
	if err != nil {
		return nil, middleware.ErrSessionRevoked
	}
	u, err := us.repos.User.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, middleware.ErrSessionRevoked
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u.IsEnabled != 1 {
		return nil, middleware.ErrSessionRevoked
	}
	return policy.NewActor(u), nil
}

func (us *UserService) Me(ctx context.Context, actor *policy.Actor) (*model.UserInfo, error) {
	if !actor.Authenticated() {
		return nil, model.ErrUnauthenticated
	}
	u, err := us.repos.User.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	info := u.Info()
	return &info, nil
}

// ListExecutors returns the engineers a manager can assign defects to.
func (us *UserService) ListExecutors(ctx context.Context, actor *policy.Actor) ([]model.UserInfo, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	if !policy.CanReassignExecutor(actor) {
		return nil, us.deny("list_executors")
	}
	users, err := us.repos.User.ListByRole(ctx, model.RoleEngineer)
	if err != nil {
		log.Errorw("list executors failed", "error", err)
		return nil, fmt.Errorf("list executors: %w", err)
	}
	out := make([]model.UserInfo, 0, len(users))
	for i := range users {
		out = append(out, users[i].Info())
	}
	return out, nil
}

func (us *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	return us.repos.User.List(ctx)
}

// SetRole is the administrative role override.
func (us *UserService) SetRole(ctx context.Context, username string, role model.Role) error {
	if !role.IsValid() {
		return model.NewValidationError("role", fmt.Sprintf("unknown role %q", role))
	}
	u, err := us.repos.User.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := us.repos.User.UpdateRole(ctx, u.ID, role); err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	log.Infow("user role changed", "userId", u.ID, "from", u.Role, "to", role)
	return nil
}

// DeleteUser removes an account. Defects and history keep their rows with
// the reference cleared; a user with comments cannot be removed.
func (us *UserService) DeleteUser(ctx context.Context, username string) error {
	u, err := us.repos.User.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := us.repos.DeleteUser(ctx, u.ID); err != nil {
		return err
	}
	log.Infow("user deleted", "userId", u.ID, "username", u.Username)
	return nil
}

func (us *UserService) sessionKey(userID, sessionID string) string {
	return us.auth.KeyPrefix + "session:" + userID + ":" + sessionID
}

func (us *UserService) deny(action string) error {
	us.metrics.ObserveDenied(action)
	return fmt.Errorf("%w: %s", model.ErrForbidden, action)
}

func getPasswordHash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Errorw("failed to hash password", "error", err)
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func comparePassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func authenticated(actor *policy.Actor) error {
	if !actor.Authenticated() {
		return model.ErrUnauthenticated
	}
	return nil
}
