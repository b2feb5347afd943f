package sqlinline

const QInsertImage = `--sql 1ac17189-0c0d-4d39-930a-ca9e243b17ad
insert into images (original_url, filter_type, status)
values ($1::text, $2::text, 'processing')
returning id, original_url, filtered_url, filter_type, status, failure_reason, created_at;
`

const QSelectImage = `--sql b0d7d6d8-66d8-4417-a426-45350d246337
select id, original_url, filtered_url, filter_type, status, failure_reason, created_at
from images
where id = $1::bigint;
`

// QUpdateImage only moves rows that are still processing; a patch without a
// status ($2 null) is a plain read-back.
const QUpdateImage = `--sql ddb6c62d-4718-4eda-80a8-b7e35d96a584
update images
set status         = coalesce($2::text, status),
    filtered_url   = coalesce($3::text, filtered_url),
    failure_reason = coalesce($4::text, failure_reason)
where id = $1::bigint
  and (status = 'processing' or $2::text is null)
returning id, original_url, filtered_url, filter_type, status, failure_reason, created_at;
`

const QFailProcessingImages = `--sql 53c11fc2-5756-49d1-b97b-ec22aa290dec
update images
set status = 'failed', failure_reason = $1::text
where status = 'processing';
`
