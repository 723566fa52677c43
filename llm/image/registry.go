package image

import (
	"strings"
	"sync"

	"github.com/Waym1ng/imagegen/llm/router"
	"github.com/Waym1ng/imagegen/types"
)

// AutoProvider 表示按模型名自动选择平台
const AutoProvider = "auto"

type registryEntry struct {
	name     string
	ctor     Constructor
	prefixes []string
}

// Registry 线程安全的 Provider 注册表。
// 保持注册顺序：List 按注册顺序返回，自动选择时先注册的前缀规则优先，
// 没有匹配时回落到第一个注册的 Provider。
type Registry struct {
	entries []registryEntry
	index   map[string]int
	router  *router.PrefixRouter
	mu      sync.RWMutex
}

// NewRegistry 创建空的注册表
func NewRegistry() *Registry {
	return &Registry{
		index:  make(map[string]int),
		router: router.NewPrefixRouter(nil),
	}
}

// Register 以小写名称注册 Provider 构造函数及其模型名前缀。
// 重复注册会替换构造函数和前缀，但保留原来的注册位置。
func (r *Registry) Register(name string, ctor Constructor, prefixes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name = strings.ToLower(name)
	entry := registryEntry{name: name, ctor: ctor, prefixes: append([]string{}, prefixes...)}
	if i, ok := r.index[name]; ok {
		r.entries[i] = entry
	} else {
		r.index[name] = len(r.entries)
		r.entries = append(r.entries, entry)
	}
	r.rebuildRouter()
}

func (r *Registry) rebuildRouter() {
	var rules []router.PrefixRule
	for _, e := range r.entries {
		for _, p := range e.prefixes {
			rules = append(rules, router.PrefixRule{Prefix: p, Provider: e.name})
		}
	}
	r.router = router.NewPrefixRouter(rules)
}

// Get 获取 Provider 实例。
// name 非空且不是 "auto" 时按名称精确查找（大小写不敏感）；
// 否则按 model 前缀自动选择。
func (r *Registry) Get(name, model string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resolved, err := r.resolve(name, model)
	if err != nil {
		return nil, err
	}
	return r.entries[r.index[resolved]].ctor()
}

func (r *Registry) resolve(name, model string) (string, error) {
	if name != "" && !strings.EqualFold(name, AutoProvider) {
		lower := strings.ToLower(name)
		if _, ok := r.index[lower]; !ok {
			return "", types.Errorf(types.ErrProviderNotFound,
				"provider %q not found, available providers: %s", name, strings.Join(r.names(), ", "))
		}
		return lower, nil
	}

	if len(r.entries) == 0 {
		return "", types.NewError(types.ErrNoProviders, "no providers registered")
	}

	registered := func(p string) bool {
		_, ok := r.index[p]
		return ok
	}
	if p, ok := r.router.Route(model, registered); ok {
		return p, nil
	}

	// 没有匹配时回落到第一个注册的 Provider
	return r.entries[0].name, nil
}

// List 按注册顺序返回已注册的 Provider 名称
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		names = append(names, e.name)
	}
	return names
}
