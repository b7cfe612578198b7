package di

// typeEntry 类型表中的一项，parent 为父类型在表中的下标（-1 表示没有父类型）
type typeEntry struct {
	spec   *TypeSpec
	parent int
}

// typeTable 以下标记录父子关系的类型表。
// 祖先总是先于后代登记，沿 parent 下标即可遍历继承链。
type typeTable struct {
	entries []typeEntry
	index   map[*TypeSpec]int
}

func newTypeTable() *typeTable {
	return &typeTable{index: make(map[*TypeSpec]int)}
}

// add 登记 spec 及其全部祖先，返回 spec 的下标
func (t *typeTable) add(spec *TypeSpec) (int, error) {
	if idx, ok := t.index[spec]; ok {
		return idx, nil
	}

	var chain []*TypeSpec
	seen := make(map[*TypeSpec]bool)
	for s := spec; s != nil; s = s.Parent {
		if seen[s] {
			return -1, malformed(spec.Type, "继承链存在环: %v", s)
		}
		seen[s] = true
		chain = append(chain, s)
	}

	parent := -1
	for i := len(chain) - 1; i >= 0; i-- {
		s := chain[i]
		if idx, ok := t.index[s]; ok {
			parent = idx
			continue
		}
		t.entries = append(t.entries, typeEntry{spec: s, parent: parent})
		parent = len(t.entries) - 1
		t.index[s] = parent
	}
	return parent, nil
}

// lineage 返回从 idx 开始直到根的描述序列（具体类型在前）
func (t *typeTable) lineage(idx int) []*TypeSpec {
	var specs []*TypeSpec
	for i := idx; i >= 0; i = t.entries[i].parent {
		specs = append(specs, t.entries[i].spec)
	}
	return specs
}
