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

package config

import "sync"

// GatewayRuntime holds the runtime configuration for the email gateway.
type GatewayRuntime struct {
	GatewayHome string `yaml:"gateway_home"`
	Config      Config `yaml:"config"`
}

var (
	runtimeConfig *GatewayRuntime
	runtimeMu     sync.RWMutex
	once          sync.Once
)

// InitializeRuntime initializes the GatewayRuntime configuration. Only the first call has an effect.
func InitializeRuntime(gatewayHome string, config *Config) error {

	once.Do(func() {
		runtimeMu.Lock()
		defer runtimeMu.Unlock()
		runtimeConfig = &GatewayRuntime{
			GatewayHome: gatewayHome,
			Config:      *config,
		}
	})

	return nil
}

// GetRuntime returns the GatewayRuntime configuration.
func GetRuntime() *GatewayRuntime {

	runtimeMu.RLock()
	defer runtimeMu.RUnlock()
	if runtimeConfig == nil {
		panic("GatewayRuntime is not initialized")
	}
	return runtimeConfig
}

// OverrideRuntime replaces the runtime configuration. Used by tests and the MCP server.
func OverrideRuntime(conf Config) {

	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	home := ""
	if runtimeConfig != nil {
		home = runtimeConfig.GatewayHome
	}
	runtimeConfig = &GatewayRuntime{
		GatewayHome: home,
		Config:      conf,
	}
}
