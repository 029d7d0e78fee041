package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"medassist/pkg"
)

// Repository wraps the read queries over the medical_records table.
type Repository struct {
	DB *sql.DB
}

// NewRepository constructs a new Repository from an existing sql.DB.
// The caller is responsible for managing the DB connection lifecycle.
func NewRepository(db *sql.DB) *Repository { return &Repository{DB: db} }

// FetchRecentRecords returns at most limit records for a patient, newest
// first.  test_results is returned as the stored text; decoding it is the
// flattener's job because its shape is not guaranteed.
func (r *Repository) FetchRecentRecords(ctx context.Context, patientID string, limit int) ([]pkg.MedicalRecord, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, patient_id, record_type, record_date, doctor_name, test_name,
                test_category, test_results, prescription_text, file_path, status, uploaded_by
         FROM medical_records
         WHERE patient_id = $1
         ORDER BY record_date DESC
         LIMIT $2`,
		patientID, limit,
	)
	if err != nil {
		return nil, wrapQueryError(err)
	}
	defer rows.Close()

	var records []pkg.MedicalRecord
	for rows.Next() {
		var (
			rec                                               pkg.MedicalRecord
			recordType                                        string
			doctor, testName, category, results, prescription sql.NullString
			filePath, status, uploadedBy                      sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.PatientID, &recordType, &rec.Date, &doctor, &testName,
			&category, &results, &prescription, &filePath, &status, &uploadedBy); err != nil {
			return nil, fmt.Errorf("scan medical record: %w", err)
		}
		rec.RecordType = pkg.RecordType(recordType)
		rec.DoctorName = nullable(doctor)
		rec.TestName = nullable(testName)
		rec.TestCategory = nullable(category)
		rec.PrescriptionText = nullable(prescription)
		rec.FilePath = nullable(filePath)
		rec.Status = nullable(status)
		rec.UploadedBy = nullable(uploadedBy)
		if results.Valid {
			rec.TestResults = results.String
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryError(err)
	}
	return records, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func wrapQueryError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("query medical records (%s): %w", pqErr.Code.Name(), err)
	}
	return fmt.Errorf("query medical records: %w", err)
}
