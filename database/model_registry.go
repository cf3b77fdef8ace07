/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"reflect"
	"sort"
	"sync"
)

var defaultRegistry = NewModelRegistry()

// SQLModel is an entity the storage context knows about. Instance returns a
// nil struct pointer usable as a Bun model; Priority orders table creation,
// so a table referenced by a foreign key needs a lower value than the table
// holding the key.
type SQLModel interface {
	Instance() interface{}
	Priority() int
}

// ModelRegistry stores SQL models and exposes them in priority order.
type ModelRegistry interface {
	Register(model SQLModel)
	Models() []SQLModel
}

type modelRegistry struct {
	models map[reflect.Type]SQLModel
	mutex  sync.RWMutex
}

// NewModelRegistry returns an empty registry. Registering the same struct
// type twice keeps the latest registration.
func NewModelRegistry() ModelRegistry {
	return &modelRegistry{models: make(map[reflect.Type]SQLModel)}
}

func (r *modelRegistry) Register(model SQLModel) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.models[reflect.TypeOf(model.Instance())] = model
}

func (r *modelRegistry) Models() []SQLModel {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]SQLModel, 0, len(r.models))
	for _, m := range r.models {
		result = append(result, m)
	}
	sortModels(result)
	return result
}

// sortModels orders models by priority, then by struct name.
func sortModels(models []SQLModel) {
	sort.SliceStable(models, func(i, j int) bool {
		if models[i].Priority() != models[j].Priority() {
			return models[i].Priority() < models[j].Priority()
		}
		return modelName(models[i].Instance()) < modelName(models[j].Instance())
	})
}

type ModelAdapter struct {
	instance interface{}
	priority int
}

// NewModelAdapter wraps a struct instance and priority into an SQLModel.
func NewModelAdapter(instance interface{}, priority int) SQLModel {
	return &ModelAdapter{instance: instance, priority: priority}
}

func (a *ModelAdapter) Instance() interface{} { return a.instance }

func (a *ModelAdapter) Priority() int { return a.priority }

// RegisterModel adds entity type T to the default registry.
func RegisterModel[T any](priority int) {
	defaultRegistry.Register(NewModelAdapter((*T)(nil), priority))
}

// GetRegisteredModels returns all models registered in the default registry
// sorted by ascending priority.
func GetRegisteredModels() []SQLModel {
	return defaultRegistry.Models()
}

// RegisteredModelInstances returns the model instances of the default
// registry in priority order.
func RegisteredModelInstances() []interface{} {
	return modelInstances(defaultRegistry.Models())
}

func modelInstances(models []SQLModel) []interface{} {
	instances := make([]interface{}, len(models))
	for i, model := range models {
		instances[i] = model.Instance()
	}
	return instances
}

func modelName(model interface{}) string {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
