/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"sync"

	"github.com/zalando/go-keyring"
)

// Service/keys for OS keyring.
const (
	keyringService = "ScriptDesk"
	keyringToken   = "backend_token"
)

// ErrNoToken is returned when no backend token has been stored.
var ErrNoToken = errors.New("no backend token stored")

// TokenStore abstracts the keyring so tests can swap it out.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

var (
	storeMu    sync.RWMutex
	tokenStore TokenStore = osKeyring{}
)

// SetTokenStore replaces the token store and returns the previous one.
func SetTokenStore(s TokenStore) TokenStore {
	storeMu.Lock()
	defer storeMu.Unlock()
	old := tokenStore
	tokenStore = s
	return old
}

func currentStore() TokenStore {
	storeMu.RLock()
	defer storeMu.RUnlock()
	return tokenStore
}

// LoadToken returns the stored backend token.
func LoadToken() (string, error) {
	tok, err := currentStore().Get(keyringService, keyringToken)
	if errors.Is(err, keyring.ErrNotFound) || (err == nil && tok == "") {
		return "", ErrNoToken
	}
	return tok, err
}

func SaveToken(token string) error {
	return currentStore().Set(keyringService, keyringToken, token)
}

// DeleteToken removes the stored token. Deleting a missing token is not an error.
func DeleteToken() error {
	err := currentStore().Delete(keyringService, keyringToken)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// osKeyring stores secrets in the OS keychain via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// MemoryStore is an in-process TokenStore for tests and headless runs.
type MemoryStore struct {
	mu sync.Mutex
	m  map[string]string
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{m: map[string]string{}} }

func (s *MemoryStore) Get(service, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[service+"/"+key]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) Set(service, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[service+"/"+key] = value
	return nil
}

func (s *MemoryStore) Delete(service, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[service+"/"+key]; !ok {
		return keyring.ErrNotFound
	}
	delete(s.m, service+"/"+key)
	return nil
}
