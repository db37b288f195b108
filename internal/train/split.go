package train

import "math/rand"

// stratifiedSplit partitions sample indices into train and test sets,
// preserving the class balance of labels in both partitions. The
// shuffle is driven entirely by seed, so splits are reproducible.
func stratifiedSplit(labels []int, testFraction float64, seed int64) (trainIdx, testIdx []int) {
	byClass := map[int][]int{}
	for i, label := range labels {
		byClass[label] = append(byClass[label], i)
	}

	rng := rand.New(rand.NewSource(seed))
	// Deterministic class order: labels are 0 and 1.
	for label := 0; label < 2; label++ {
		idx := byClass[label]
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })

		nTest := int(float64(len(idx)) * testFraction)
		testIdx = append(testIdx, idx[:nTest]...)
		trainIdx = append(trainIdx, idx[nTest:]...)
	}
	return trainIdx, testIdx
}
