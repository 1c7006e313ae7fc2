/*
 * Copyright (c) 2026, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package locks provides in-process read/write locks keyed by project id or request id.
package locks

import "sync"

type entry struct {
	sync.RWMutex
	refs int
}

// KeyedRWMutex hands out one RWMutex per key. Entries live only while referenced.
type KeyedRWMutex[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry
}

func NewKeyedRWMutex[K comparable]() *KeyedRWMutex[K] {
	return &KeyedRWMutex[K]{entries: make(map[K]*entry)}
}

func (k *KeyedRWMutex[K]) acquire(key K) *entry {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	return e
}

func (k *KeyedRWMutex[K]) release(key K, e *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
}

// Lock takes the write lock of key and returns its unlock function.
func (k *KeyedRWMutex[K]) Lock(key K) (unlock func()) {
	e := k.acquire(key)
	e.Lock()
	return func() {
		e.Unlock()
		k.release(key, e)
	}
}

// RLock takes the read lock of key and returns its unlock function.
func (k *KeyedRWMutex[K]) RLock(key K) (unlock func()) {
	e := k.acquire(key)
	e.RLock()
	return func() {
		e.RUnlock()
		k.release(key, e)
	}
}

// Size returns the number of keys currently referenced.
func (k *KeyedRWMutex[K]) Size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
