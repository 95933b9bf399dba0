// Package relmark prepares relation extraction corpora for fine-tuning.
//
// Relmark takes raw sentence-level corpora annotated with subject and object
// entity spans, re-annotates the sentences with boundary markers around both
// entities, resolves relation labels to class indices, and encodes the result
// into padded token id batches. A k-fold cross-validation loop evaluates
// classifiers over the prepared data.
//
// # Basic Usage
//
// Create a pipeline client with a label table and tokenizer adapter:
//
//	table := labels.Default()
//
//	tok, err := pretrained.FromFile(vocabPath)
//	if err != nil {
//		log.Fatal(err)
//	}
//	adapter := tokenize.NewAdapter(tokenize.NewHFTokenizer(tok))
//
//	client, err := relmark.NewClient(table, adapter, nil, nil, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close(ctx)
//
// # Preparing a Corpus
//
// Raw rows carry the sentence and the two entity span fields from the corpus:
//
//	results, err := client.PrepareFile(ctx, "data/train.csv", "data/prepared")
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, f := range results.Failures {
//		log.Printf("row %d rejected: %v", f.RowID, f.Err)
//	}
//
// Each prepared sentence wraps the subject in [SUB]...[/SUB] and the object
// in [OBJ]...[/OBJ], with every span offset preserved no matter where the
// entities sit relative to each other.
//
// # Encoding
//
// Annotated records encode into one padded batch for the model:
//
//	batch, err := client.Encode(ctx, results.Records)
//
// # Error Handling
//
// Malformed rows surface as typed errors carrying the offending row id:
//
//   - types.MalformedSpanError: an entity field failed to parse or its
//     offsets fall outside the sentence
//   - types.OverlappingSpanError: the subject and object spans overlap
//   - types.UnknownLabelError: the relation label is not in the table
//
// # Architecture
//
// The library follows a modular architecture:
//
//   - pkg/annotate: span parsing and marker insertion
//   - pkg/tokenize: subword tokenizer adapter and batch encoding
//   - pkg/labels: relation label table
//   - pkg/kfold: seeded stratified fold splitting
//   - pkg/trainer: cross-validation loop and metric tracking
//   - pkg/types: core type definitions
//
// This design allows easy extension with additional tokenizer backends,
// classifiers, and quality recognizers.
package relmark
