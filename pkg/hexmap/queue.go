package hexmap

// searchNode - элемент открытого множества A*
type searchNode struct {
	Coord    Coord
	Priority int // f = g + эвристика. Чем меньше, тем раньше достаем.
	seq      int // порядок вставки: при равном f побеждает более ранний
	index    int
}

// searchQueue реализует heap.Interface (MinHeap по Priority)
type searchQueue struct {
	items   []*searchNode
	nextSeq int
}

func (q *searchQueue) Len() int { return len(q.items) }

func (q *searchQueue) Less(i, j int) bool {
	if q.items[i].Priority != q.items[j].Priority {
		return q.items[i].Priority < q.items[j].Priority
	}
	// FIFO при равной стоимости: равноценные маршруты взаимозаменяемы,
	// но выбор должен быть стабильным
	return q.items[i].seq < q.items[j].seq
}

func (q *searchQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}

func (q *searchQueue) Push(x interface{}) {
	item := x.(*searchNode)
	item.index = len(q.items)
	item.seq = q.nextSeq
	q.nextSeq++
	q.items = append(q.items, item)
}

func (q *searchQueue) Pop() interface{} {
	old := q.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // избегаем утечки памяти
	item.index = -1
	q.items = old[0 : n-1]
	return item
}
