/*
 * @module service/catalog/catalog
 * @description 字段目录，提供各记录类型可用字段及其显示标签，供规则编辑器与标签解析使用
 * @architecture 分层架构 - 元数据层
 * @documentReference SPEC_FULL.md
 * @stateFlow 加载YAML文件 -> 构建内存索引 -> 文件变化时重新加载(失败保留旧目录)
 * @rules 目录只读；重新加载整体替换快照，读取方不会看到部分加载的数据
 * @dependencies gopkg.in/yaml.v3, github.com/fsnotify/fsnotify
 * @refs service/record_scoring/scoring_service.go, api/controllers/catalog_controller.go
 */

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// FieldInfo 字段描述
type FieldInfo struct {
	Name  string `yaml:"name" json:"name"`
	Label string `yaml:"label" json:"label"`
}

// Catalog 字段目录查询接口
type Catalog interface {
	// Fields 获取记录类型的全部字段
	Fields(recordType string) []FieldInfo
	// Label 获取字段显示标签
	Label(recordType, fieldName string) (string, bool)
}

// EmptyCatalog 未配置目录文件时使用
type EmptyCatalog struct{}

// Fields 获取记录类型的全部字段
func (EmptyCatalog) Fields(recordType string) []FieldInfo {
	return []FieldInfo{}
}

// Label 获取字段显示标签
func (EmptyCatalog) Label(recordType, fieldName string) (string, bool) {
	return "", false
}

// catalogFile 目录文件格式
type catalogFile struct {
	RecordTypes map[string][]FieldInfo `yaml:"record_types"`
}

type snapshot struct {
	fields map[string][]FieldInfo
	labels map[string]map[string]string
}

// FileCatalog 基于YAML文件的字段目录
type FileCatalog struct {
	path string

	mu   sync.RWMutex
	snap *snapshot
}

// NewFileCatalog 加载目录文件
func NewFileCatalog(path string) (*FileCatalog, error) {
	snap, err := loadSnapshot(path)
	if err != nil {
		return nil, err
	}
	slog.Info("字段目录已加载", "path", path, "record_types", len(snap.fields))
	return &FileCatalog{path: path, snap: snap}, nil
}

func loadSnapshot(path string) (*snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字段目录失败: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("解析字段目录失败: %w", err)
	}

	snap := &snapshot{
		fields: make(map[string][]FieldInfo, len(file.RecordTypes)),
		labels: make(map[string]map[string]string, len(file.RecordTypes)),
	}
	for recordType, fields := range file.RecordTypes {
		recordType = strings.TrimSpace(recordType)
		list := make([]FieldInfo, 0, len(fields))
		labels := make(map[string]string, len(fields))
		for i, field := range fields {
			name := strings.TrimSpace(field.Name)
			if name == "" {
				return nil, fmt.Errorf("字段目录 %s 第%d个字段缺少名称", recordType, i+1)
			}
			label := strings.TrimSpace(field.Label)
			list = append(list, FieldInfo{Name: name, Label: label})
			if label != "" {
				labels[name] = label
			}
		}
		snap.fields[recordType] = list
		snap.labels[recordType] = labels
	}
	return snap, nil
}

// Fields 获取记录类型的全部字段
func (c *FileCatalog) Fields(recordType string) []FieldInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	fields := c.snap.fields[recordType]
	result := make([]FieldInfo, len(fields))
	copy(result, fields)
	return result
}

// Label 获取字段显示标签
func (c *FileCatalog) Label(recordType, fieldName string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	label, ok := c.snap.labels[recordType][fieldName]
	return label, ok
}

// Reload 重新加载目录文件，失败时保留当前目录
func (c *FileCatalog) Reload() error {
	snap, err := loadSnapshot(c.path)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
	return nil
}

// Watch 监听目录文件变化并自动重新加载，直到ctx取消
// 监听所在目录而非文件本身，重命名覆盖式保存后仍能收到事件
func (c *FileCatalog) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监听失败: %w", err)
	}
	defer watcher.Close()

	dir, name := filepath.Split(filepath.Clean(c.path))
	if dir == "" {
		dir = "."
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("监听字段目录失败: %w", err)
	}
	slog.Info("开始监听字段目录", "path", c.path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := c.Reload(); err != nil {
				slog.Error("字段目录重新加载失败，保留原目录", "path", c.path, "error", err)
				continue
			}
			slog.Info("字段目录已重新加载", "path", c.path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("字段目录监听错误", "error", err)
		}
	}
}
